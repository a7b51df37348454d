package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestSandbox(t *testing.T) *Sandbox {
	t.Helper()
	return NewSandbox(t.TempDir())
}

func TestRunCapturesOutput(t *testing.T) {
	sandbox := newTestSandbox(t)
	result, err := sandbox.Run(context.Background(), "echo hello; echo oops >&2", "", 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success || result.ExitCode != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Stdout != "hello" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if result.Stderr != "oops" {
		t.Errorf("stderr = %q", result.Stderr)
	}
}

func TestRunFailureIsInBand(t *testing.T) {
	sandbox := newTestSandbox(t)
	result, err := sandbox.Run(context.Background(), "exit 3", "", 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success {
		t.Error("failing command reported success")
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
}

func TestRunBannedCommand(t *testing.T) {
	sandbox := newTestSandbox(t)
	for _, command := range []string{"git init", "cd repo && git add .", "git commit -m x"} {
		result, err := sandbox.Run(context.Background(), command, "", 0)
		if err != nil {
			t.Fatalf("Run(%q): %v", command, err)
		}
		if result.Error != "banned command" {
			t.Errorf("Run(%q) error = %q, want banned command", command, result.Error)
		}
		if !strings.Contains(result.Message, "banned string") {
			t.Errorf("Run(%q) message = %q", command, result.Message)
		}
	}
}

func TestRunEmptyCommand(t *testing.T) {
	sandbox := newTestSandbox(t)
	result, err := sandbox.Run(context.Background(), "   ", "", 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success || result.Error == "" {
		t.Errorf("result = %+v", result)
	}
}

func TestRunTimeoutIsResultNotError(t *testing.T) {
	sandbox := newTestSandbox(t)
	result, err := sandbox.Run(context.Background(), "sleep 5", "", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.TimedOut {
		t.Fatalf("result = %+v, want timed out", result)
	}
	if result.Success {
		t.Error("timed out command reported success")
	}
}

func TestRunStdin(t *testing.T) {
	sandbox := newTestSandbox(t)
	result, err := sandbox.Run(context.Background(), "cat", "piped input", 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Stdout != "piped input" {
		t.Errorf("stdout = %q", result.Stdout)
	}
}

func TestRunCanceledContext(t *testing.T) {
	sandbox := newTestSandbox(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sandbox.Run(ctx, "echo hi", "", 0); err == nil {
		t.Error("canceled context did not surface as error")
	}
}

func TestScrubStripsANSI(t *testing.T) {
	input := "\x1b[31mred\x1b[0m text\n"
	if got := scrub(input); got != "red text" {
		t.Errorf("scrub = %q", got)
	}
}

func TestLimitedBufferCapsOutput(t *testing.T) {
	buf := newLimitedBuffer(5)
	n, err := buf.Write([]byte("1234567890"))
	if err != nil || n != 10 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if got := buf.String(); got != "12345" {
		t.Errorf("buffer = %q, want capped to 5 bytes", got)
	}
	// Further writes are discarded without error.
	if _, err := buf.Write([]byte("more")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if got := buf.String(); got != "12345" {
		t.Errorf("buffer after cap = %q", got)
	}
}
