package exec

import (
	"context"
	"encoding/json"
	"time"

	"github.com/haasonsaas/workforce/internal/agent"
)

// BashTool exposes the sandbox as an executor tool. Failures, timeouts, and
// banned commands come back as structured JSON results for the model.
type BashTool struct {
	sandbox *Sandbox
}

// NewBashTool creates a bash tool over the given sandbox.
func NewBashTool(sandbox *Sandbox) *BashTool {
	return &BashTool{sandbox: sandbox}
}

func (t *BashTool) Name() string {
	return "run_bash"
}

func (t *BashTool) Description() string {
	return "Execute a bash command in your workspace and return its output. " +
		"The working directory persists across calls. Avoid commands that produce very large output."
}

func (t *BashTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {
				"type": "string",
				"description": "The command to execute"
			},
			"timeout_seconds": {
				"type": "integer",
				"description": "Optional wallclock timeout in seconds"
			}
		},
		"required": ["command"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Command        string `json:"command"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return &agent.ToolResult{Content: "invalid parameters: " + err.Error(), IsError: true}, nil
	}

	result, err := t.sandbox.Run(ctx, args.Command, "", time.Duration(args.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		return &agent.ToolResult{Content: marshalErr.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{
		Content: string(payload),
		IsError: !result.Success,
	}, nil
}
