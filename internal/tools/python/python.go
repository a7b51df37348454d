// Package python executes Python snippets inside the command sandbox.
package python

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haasonsaas/workforce/internal/agent"
	"github.com/haasonsaas/workforce/internal/tools/exec"
)

// DefaultTimeout bounds one snippet execution.
const DefaultTimeout = 30 * time.Second

// Tool runs Python code by piping it to the interpreter inside the sandbox
// workspace. Files the snippet creates in the workspace are reported back so
// later subtasks can pick them up.
type Tool struct {
	sandbox *exec.Sandbox
	timeout time.Duration
}

// NewTool creates a Python execution tool over the given sandbox.
func NewTool(sandbox *exec.Sandbox) *Tool {
	return &Tool{sandbox: sandbox, timeout: DefaultTimeout}
}

// NewToolWithTimeout creates a Python execution tool with a custom default
// timeout.
func NewToolWithTimeout(sandbox *exec.Sandbox, timeout time.Duration) *Tool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tool{sandbox: sandbox, timeout: timeout}
}

func (t *Tool) Name() string {
	return "execute_python_code"
}

func (t *Tool) Description() string {
	return "Execute Python code in a sandboxed workspace and return its output. " +
		"Files written to the working directory are reported in the result."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"code": {
				"type": "string",
				"description": "The Python code to execute"
			},
			"timeout_seconds": {
				"type": "integer",
				"description": "Execution timeout in seconds, default 30"
			}
		},
		"required": ["code"]
	}`)
}

// result is the structured payload fed back to the model.
type result struct {
	Workdir string   `json:"workdir"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Files   []string `json:"files"`
	Error   string   `json:"error,omitempty"`
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Code           string `json:"code"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return &agent.ToolResult{Content: "invalid parameters: " + err.Error(), IsError: true}, nil
	}

	timeout := t.timeout
	if args.TimeoutSeconds > 0 {
		timeout = time.Duration(args.TimeoutSeconds) * time.Second
	}

	code := stripFences(args.Code)
	before := workspaceFiles(t.sandbox.Workspace())

	run, err := t.sandbox.Run(ctx, "python3 -", code, timeout)
	if err != nil {
		return nil, err
	}

	res := result{
		Workdir: run.Workdir,
		Success: run.Success,
		Files:   newFiles(t.sandbox.Workspace(), before),
		Error:   run.Stderr,
	}
	if run.TimedOut {
		res.Message = run.Message
		res.Error = run.Message
	} else if run.Stdout != "" {
		res.Message = "Code execution completed\nOutput:\n" + run.Stdout
	} else {
		res.Message = "Code execution completed, no output"
	}
	// A traceback on stderr marks failure even when the interpreter exits 0.
	if strings.Contains(run.Stderr, "Traceback") || strings.Contains(run.Stderr, "Error") {
		res.Success = false
	}

	payload, marshalErr := json.Marshal(res)
	if marshalErr != nil {
		return &agent.ToolResult{Content: marshalErr.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{
		Content: string(payload),
		IsError: !res.Success,
	}, nil
}

// stripFences removes a surrounding markdown code fence that models often
// wrap snippets in.
func stripFences(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "```python") {
		code = strings.TrimPrefix(code, "```python")
		if end := strings.Index(code, "```"); end >= 0 {
			code = code[:end]
		}
	} else if strings.HasPrefix(code, "```") {
		code = strings.TrimPrefix(code, "```")
		if end := strings.Index(code, "```"); end >= 0 {
			code = code[:end]
		}
	}
	return strings.TrimSpace(code)
}

func workspaceFiles(workspace string) map[string]struct{} {
	out := make(map[string]struct{})
	entries, err := os.ReadDir(workspace)
	if err != nil {
		return out
	}
	for _, entry := range entries {
		out[entry.Name()] = struct{}{}
	}
	return out
}

// newFiles lists workspace entries created since the before snapshot, as
// absolute paths.
func newFiles(workspace string, before map[string]struct{}) []string {
	files := []string{}
	entries, err := os.ReadDir(workspace)
	if err != nil {
		return files
	}
	for _, entry := range entries {
		if _, ok := before[entry.Name()]; !ok {
			files = append(files, filepath.Join(workspace, entry.Name()))
		}
	}
	return files
}
