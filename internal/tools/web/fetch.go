// Package web fetches pages and extracts readable content for executors.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"

	"github.com/haasonsaas/workforce/internal/agent"
)

// Limits on fetched documents.
const (
	DefaultTimeout  = 30 * time.Second
	maxBodySize     = 4 << 20
	maxContentRunes = 40000
)

// FetchTool retrieves a URL, runs readability extraction on the HTML, and
// converts the main content to markdown. Network and extraction failures
// come back as error results for the model, never as Go errors.
type FetchTool struct {
	client *http.Client
	conv   *md.Converter
}

// NewFetchTool creates a web fetch tool with a bounded HTTP client.
func NewFetchTool() *FetchTool {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &FetchTool{
		client: &http.Client{Timeout: DefaultTimeout},
		conv:   conv,
	}
}

func (t *FetchTool) Name() string {
	return "fetch_page"
}

func (t *FetchTool) Description() string {
	return "Fetch a web page and return its main content as markdown, with the page title."
}

func (t *FetchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {
				"type": "string",
				"description": "The absolute http(s) URL to fetch"
			}
		},
		"required": ["url"]
	}`)
}

// result is the structured payload fed back to the model.
type result struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (t *FetchTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult(args.URL, "invalid parameters: "+err.Error()), nil
	}

	parsed, err := url.Parse(strings.TrimSpace(args.URL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errorResult(args.URL, "url must be absolute http or https"), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return errorResult(args.URL, err.Error()), nil
	}
	req.Header.Set("User-Agent", "workforce/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResult(args.URL, err.Error()), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorResult(args.URL, fmt.Sprintf("unexpected status %d", resp.StatusCode)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errorResult(args.URL, "read body: "+err.Error()), nil
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return errorResult(args.URL, "extract content: "+err.Error()), nil
	}

	markdown, err := t.conv.ConvertString(article.Content)
	if err != nil {
		// Fall back to the plain text extraction.
		markdown = article.TextContent
	}
	markdown = truncate(strings.TrimSpace(markdown), maxContentRunes)

	payload, marshalErr := json.Marshal(result{
		URL:     parsed.String(),
		Title:   article.Title,
		Content: markdown,
	})
	if marshalErr != nil {
		return errorResult(args.URL, marshalErr.Error()), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

func errorResult(rawURL, msg string) *agent.ToolResult {
	payload, _ := json.Marshal(result{URL: rawURL, Error: msg})
	return &agent.ToolResult{Content: string(payload), IsError: true}
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "\n\n[content truncated]"
}
