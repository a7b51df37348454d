package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// includeKey splices another config file into the current one. The bare
// "include" spelling is accepted too.
const includeKey = "$include"

// LoadRaw reads a configuration file into one merged key tree: the file is
// parsed, its $include files are spliced in depth-first, and ${VAR}
// references in string values are expanded. Expansion runs after parsing so
// directive keys like $include are never mistaken for variable references.
func LoadRaw(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config path is required")
	}
	tree, err := resolveFile(path, map[string]bool{})
	if err != nil {
		return nil, err
	}
	expandStrings(tree)
	return tree, nil
}

// resolveFile parses one file and splices its includes underneath it, so the
// including file wins on conflicting keys. The seen set holds the chain of
// files currently being resolved; revisiting one of them is a cycle.
func resolveFile(path string, seen map[string]bool) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if seen[abs] {
		return nil, fmt.Errorf("config include cycle detected at %s", abs)
	}
	seen[abs] = true
	defer delete(seen, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	tree, err := parseTree(data, filepath.Ext(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	includes, err := takeIncludes(tree)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	merged := map[string]any{}
	for _, inc := range includes {
		inc = os.ExpandEnv(strings.TrimSpace(inc))
		if inc == "" {
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(abs), inc)
		}
		sub, err := resolveFile(inc, seen)
		if err != nil {
			return nil, err
		}
		merged = mergeTrees(merged, sub)
	}
	return mergeTrees(merged, tree), nil
}

// parseTree decodes one document into a key tree, picking the codec by file
// extension. YAML is the default; .json and .json5 go through the JSON5
// decoder so commented JSON configs work.
func parseTree(data []byte, ext string) (map[string]any, error) {
	if ext := strings.ToLower(ext); ext == ".json" || ext == ".json5" {
		var tree map[string]any
		if err := json5.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
		if tree == nil {
			tree = map[string]any{}
		}
		return tree, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	var tree map[string]any
	if err := decoder.Decode(&tree); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("expected a single document")
	}
	if tree == nil {
		tree = map[string]any{}
	}
	return tree, nil
}

// takeIncludes removes the include directive from the tree and returns its
// paths. A single string and a list of strings are both accepted.
func takeIncludes(tree map[string]any) ([]string, error) {
	var value any
	for _, key := range []string{includeKey, "include"} {
		if v, ok := tree[key]; ok {
			value = v
			delete(tree, key)
			break
		}
	}

	switch typed := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{typed}, nil
	case []any:
		paths := make([]string, 0, len(typed))
		for _, entry := range typed {
			path, ok := entry.(string)
			if !ok {
				return nil, errors.New("include entries must be strings")
			}
			paths = append(paths, path)
		}
		return paths, nil
	default:
		return nil, errors.New("include must be a string or list of strings")
	}
}

// mergeTrees merges src into dst. Nested maps merge per key; any other value
// in src replaces the one in dst.
func mergeTrees(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = mergeTrees(dstMap, srcMap)
				continue
			}
		}
		dst[key] = value
	}
	return dst
}

// expandStrings substitutes ${VAR} references in every string value of the
// tree, in place. Keys are left alone.
func expandStrings(tree map[string]any) {
	for key, value := range tree {
		tree[key] = expandValue(value)
	}
}

func expandValue(value any) any {
	switch typed := value.(type) {
	case string:
		return os.ExpandEnv(typed)
	case map[string]any:
		expandStrings(typed)
		return typed
	case []any:
		for i, entry := range typed {
			typed[i] = expandValue(entry)
		}
		return typed
	default:
		return value
	}
}

// decodeRawConfig maps a merged tree onto the Config schema. Unknown keys
// are rejected so typos surface at load time.
func decodeRawConfig(raw map[string]any) (*Config, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(payload))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
