package agent

import (
	"context"
	"encoding/json"
)

// LLMProvider defines the interface for chat-completion model backends.
//
// Implementations of this interface handle the specifics of communicating with
// different LLM APIs (OpenAI, Anthropic, ...) while presenting a unified
// streaming interface to the gateway.
//
// Thread safety: implementations must be safe for concurrent use. Multiple
// goroutines may call Complete() simultaneously for different requests.
type LLMProvider interface {
	// Complete sends a request and returns a streaming response.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name.
	Name() string

	// SupportsTools returns whether the provider supports native tool use.
	SupportsTools() bool
}

// CompletionRequest contains all parameters for an LLM completion request.
type CompletionRequest struct {
	// Model specifies which LLM model to use.
	// If empty, the provider's default model is used.
	Model string `json:"model"`

	// System is the system prompt that sets the assistant's behavior.
	// This is handled separately from messages in most LLM APIs.
	System string `json:"system,omitempty"`

	// Messages contains the conversation history in chronological order.
	// Must include at least one message (typically the user's query).
	Messages []CompletionMessage `json:"messages"`

	// Tools defines available tools the LLM can request to execute.
	// If empty, no tool calling is available.
	Tools []Tool `json:"tools,omitempty"`

	// MaxTokens limits the maximum length of the generated response.
	// If 0 or negative, the provider's default is used.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionMessage represents a single message in a conversation.
//
// Role values: "user", "assistant", "tool"
type CompletionMessage struct {
	// Role indicates who sent the message: "user", "assistant", or "tool"
	Role string `json:"role"`

	// Content is the text content of the message (may be empty for tool-only messages)
	Content string `json:"content,omitempty"`

	// ToolCalls contains any tool execution requests from the assistant
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResults contains responses from executed tools
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// CompletionChunk represents a single chunk in a streaming LLM response.
//
// Chunks are delivered through channels as the LLM generates its response.
// Each chunk may contain partial text, a complete tool call, a done signal,
// or an error.
type CompletionChunk struct {
	// Text contains partial response text (streamed incrementally)
	Text string `json:"text,omitempty"`

	// ToolCall contains a complete tool execution request
	ToolCall *ToolCall `json:"tool_call,omitempty"`

	// Done is true when the stream has completed successfully
	Done bool `json:"done,omitempty"`

	// Error contains any error that occurred (streaming is terminated)
	Error error `json:"-"`
}

// ToolCall is a request from the model to execute a named tool.
type ToolCall struct {
	// ID uniquely identifies the call within a conversation turn.
	ID string `json:"id"`

	// Name is the tool name as advertised in the request.
	Name string `json:"name"`

	// Input is the JSON-encoded arguments for the tool.
	Input json.RawMessage `json:"input"`
}

// Tool defines the interface for executable agent tools.
//
// Tools extend an executor's capabilities: fetching web pages, running
// sandboxed commands, evaluating expressions. Tool failures are communicated
// through ToolResult with IsError=true so the model can handle them; they
// never escape the executor conversation.
type Tool interface {
	// Name returns the tool name for LLM function calling.
	// Must be a valid function name (alphanumeric, underscores).
	Name() string

	// Description returns a natural language description of what the tool does.
	Description() string

	// Schema returns the JSON Schema defining the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters.
	// The params match the schema returned by Schema().
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult contains the output from a tool execution.
type ToolResult struct {
	// ToolCallID correlates the result to the originating call.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Content is the tool's output (text or JSON).
	Content string `json:"content"`

	// IsError indicates this result represents an error condition.
	IsError bool `json:"is_error,omitempty"`
}
