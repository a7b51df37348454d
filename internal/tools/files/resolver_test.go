package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveConfinesToRoot(t *testing.T) {
	root := t.TempDir()
	resolver := Resolver{Root: root}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"dot", ".", false},
		{"relative child", "data/out.txt", false},
		{"dotdot inside", "data/../other.txt", false},
		{"escape", "../outside.txt", true},
		{"deep escape", "a/../../outside.txt", true},
		{"absolute outside", "/etc/passwd", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) = %q, want error", tt.path, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.path, err)
			}
			if !strings.HasPrefix(got, root) {
				t.Errorf("Resolve(%q) = %q, outside root %q", tt.path, got, root)
			}
		})
	}
}

func TestResolveAbsoluteInsideRoot(t *testing.T) {
	root := t.TempDir()
	resolver := Resolver{Root: root}

	inside := filepath.Join(root, "file.txt")
	got, err := resolver.Resolve(inside)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != inside {
		t.Errorf("Resolve = %q, want %q", got, inside)
	}
}

func TestNewWorkspaceCreatesUniqueDirs(t *testing.T) {
	root := t.TempDir()

	first, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	second, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if first == second {
		t.Errorf("workspaces not unique: %q", first)
	}
	for _, dir := range []string{first, second} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("workspace %q not created: %v", dir, err)
		}
		if filepath.Dir(dir) != root {
			t.Errorf("workspace %q not under root %q", dir, root)
		}
	}
}
