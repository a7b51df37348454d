package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExecuteRejectsBadURLs(t *testing.T) {
	tool := NewFetchTool()

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "/relative/path"} {
		params, _ := json.Marshal(map[string]string{"url": raw})
		result, err := tool.Execute(context.Background(), params)
		if err != nil {
			t.Fatalf("Execute(%q): %v", raw, err)
		}
		if !result.IsError {
			t.Errorf("Execute(%q) accepted invalid url", raw)
		}
	}
}

func TestExecuteExtractsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Release Notes</title></head><body>
			<article><h1>Release Notes</h1>
			<p>The parser now tolerates annotated task tags in plan updates, and
			several long paragraphs of detail follow so the extractor treats this
			as the main content of the page rather than boilerplate.</p>
			<p>Further changes include a reworked scheduler and better timeout
			handling across all sandboxed tools in the execution layer.</p>
			</article></body></html>`))
	}))
	defer server.Close()

	tool := NewFetchTool()
	params, _ := json.Marshal(map[string]string{"url": server.URL})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError {
		t.Fatalf("error result: %s", res.Content)
	}

	var payload result
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if !strings.Contains(payload.Content, "reworked scheduler") {
		t.Errorf("content missing article text:\n%s", payload.Content)
	}
}

func TestExecuteNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	tool := NewFetchTool()
	params, _ := json.Marshal(map[string]string{"url": server.URL})
	res, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "404") {
		t.Errorf("result = %+v", res)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	long := strings.Repeat("x", 50)
	got := truncate(long, 10)
	if !strings.HasPrefix(got, strings.Repeat("x", 10)) || !strings.Contains(got, "truncated") {
		t.Errorf("truncate = %q", got)
	}
}
