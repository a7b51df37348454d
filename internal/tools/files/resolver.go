// Package files provides workspace path confinement for sandbox tools.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Resolver resolves and validates workspace-relative paths. Every sandbox
// tool resolves its paths through one of these; a path that escapes the
// workspace root is rejected.
type Resolver struct {
	Root string
}

// Resolve returns an absolute, cleaned path within the workspace root.
func (r Resolver) Resolve(path string) (string, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return "", fmt.Errorf("path is required")
	}
	root := strings.TrimSpace(r.Root)
	if root == "" {
		root = "."
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	var target string
	if filepath.IsAbs(clean) {
		target = filepath.Clean(clean)
	} else {
		target = filepath.Join(rootAbs, clean)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, targetAbs)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes workspace")
	}
	return targetAbs, nil
}

// NewWorkspace creates a unique per-run workspace directory under root,
// named <timestamp>_<uuid8>, and returns its path.
func NewWorkspace(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		root = filepath.Join(os.TempDir(), "workforce")
	}
	name := time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
	workspace := filepath.Join(root, name)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return workspace, nil
}
