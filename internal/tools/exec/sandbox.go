// Package exec runs shell commands inside a workspace-confined sandbox.
//
// The sandbox enforces the executor tool contract: working-directory
// confinement through the workspace resolver, a minimal PATH, a wallclock
// timeout, a banned-substring filter for write-sensitive commands, bounded
// output capture, and scrubbing of ANSI escape sequences. Timeouts and
// command failures come back as structured results, never as errors across
// the tool boundary.
package exec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/haasonsaas/workforce/internal/tools/files"
)

// Sandbox defaults.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxOutput = 64000

	minimalPath = "/usr/local/bin:/usr/bin:/bin"
)

// ansiEscape matches terminal escape sequences in captured output.
var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// defaultBannedSubstrings blocks write-sensitive repository commands inside
// the sandbox.
var defaultBannedSubstrings = []string{
	"git init",
	"git commit",
	"git add",
}

// Sandbox executes commands confined to one workspace directory. Safe for
// concurrent use: invocations share only immutable configuration.
type Sandbox struct {
	resolver  files.Resolver
	timeout   time.Duration
	maxOutput int
	banned    []string
}

// NewSandbox creates a sandbox rooted at the given workspace directory.
func NewSandbox(workspace string) *Sandbox {
	return &Sandbox{
		resolver:  files.Resolver{Root: workspace},
		timeout:   DefaultTimeout,
		maxOutput: DefaultMaxOutput,
		banned:    defaultBannedSubstrings,
	}
}

// SetTimeout overrides the per-invocation wallclock timeout.
func (s *Sandbox) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.timeout = timeout
	}
}

// SetBannedCommands replaces the banned-substring filter. Must be called
// before the sandbox is shared across goroutines.
func (s *Sandbox) SetBannedCommands(banned []string) {
	if len(banned) > 0 {
		s.banned = banned
	}
}

// Workspace returns the sandbox's workspace root.
func (s *Sandbox) Workspace() string {
	return s.resolver.Root
}

// Result is the structured outcome of one sandboxed invocation. TimedOut
// marks a wallclock expiry; it is a result field, not an error.
type Result struct {
	Workdir  string        `json:"workdir"`
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Run executes a shell command in the workspace. Stdin may carry piped
// input (used by the code executor). The error return is reserved for
// caller context cancellation; everything else is in the Result.
func (s *Sandbox) Run(ctx context.Context, command, stdin string, timeout time.Duration) (Result, error) {
	if strings.TrimSpace(command) == "" && stdin == "" {
		return Result{
			Workdir: s.resolver.Root,
			Message: "command is required",
			Error:   "command is required",
		}, nil
	}

	for _, banned := range s.banned {
		if strings.Contains(command, banned) {
			return Result{
				Workdir: s.resolver.Root,
				Message: fmt.Sprintf("Command not executed due to banned string in command: %s", banned),
				Error:   "banned command",
			}, nil
		}
	}

	if timeout <= 0 {
		timeout = s.timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir, err := s.resolver.Resolve(".")
	if err != nil {
		return Result{Workdir: s.resolver.Root, Message: err.Error(), Error: err.Error()}, nil
	}

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = []string{"PATH=" + minimalPath, "HOME=" + dir}

	stdout := newLimitedBuffer(s.maxOutput)
	stderr := newLimitedBuffer(s.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() != nil && !errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{}, ctx.Err()
	}

	result := Result{
		Workdir:  dir,
		Stdout:   scrub(stdout.String()),
		Stderr:   scrub(stderr.String()),
		ExitCode: exitCode(runErr),
		Duration: elapsed,
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.Message = fmt.Sprintf("Command timed out after %s", timeout)
		result.Error = result.Message
		return result, nil
	}

	if runErr == nil {
		result.Success = true
		result.Message = "Command executed successfully"
	} else {
		result.Message = "Command execution failed"
		result.Error = runErr.Error()
	}
	return result, nil
}

// scrub strips ANSI escape sequences and trims surrounding whitespace.
func scrub(s string) string {
	return strings.TrimSpace(ansiEscape.ReplaceAllString(s, ""))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// limitedBuffer caps captured output so a chatty command cannot exhaust
// memory. Writes past the cap are silently discarded.
type limitedBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newLimitedBuffer(max int) *limitedBuffer {
	return &limitedBuffer{max: max}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.buf) >= b.max {
		return len(p), nil
	}
	remaining := b.max - len(b.buf)
	if b.max > 0 && len(p) > remaining {
		b.buf = append(b.buf, p[:remaining]...)
		return len(p), nil
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
