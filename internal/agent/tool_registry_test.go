package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRegistryExecuteUnknownTool(t *testing.T) {
	registry := NewToolRegistry()
	result, err := registry.Execute(context.Background(), "nope", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.IsError || !strings.Contains(result.Content, "tool not found") {
		t.Errorf("result = %+v", result)
	}
}

func TestRegistryValidatesParams(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(echoTool{})

	tests := []struct {
		name      string
		params    string
		wantError bool
	}{
		{"valid", `{"text":"hi"}`, false},
		{"wrong type", `{"text":123}`, true},
		{"missing required", `{}`, true},
		{"not json", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := registry.Execute(context.Background(), "echo", json.RawMessage(tt.params))
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if result.IsError != tt.wantError {
				t.Errorf("IsError = %v, want %v (content: %s)", result.IsError, tt.wantError, result.Content)
			}
		})
	}
}

func TestRegistryLimits(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(echoTool{})

	longName := strings.Repeat("x", MaxToolNameLength+1)
	result, err := registry.Execute(context.Background(), longName, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.IsError {
		t.Error("oversized tool name accepted")
	}
}

func TestRegistryReplacesOnReregister(t *testing.T) {
	registry := NewToolRegistry()
	registry.Register(echoTool{})
	registry.Register(echoTool{})

	if got := len(registry.Names()); got != 1 {
		t.Errorf("registered tools = %d, want 1", got)
	}
	if _, ok := registry.Get("echo"); !ok {
		t.Error("tool lookup failed after re-registration")
	}
}
