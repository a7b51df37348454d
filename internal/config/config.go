// Package config loads workforce configuration from YAML or JSON5 files,
// resolving $include directives and environment variable references.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the main configuration structure for workforce.
type Config struct {
	LLM           LLMConfig           `yaml:"llm"`
	Workforce     WorkforceConfig     `yaml:"workforce"`
	Tools         ToolsConfig         `yaml:"tools"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LLMConfig selects the provider and default generation parameters shared by
// all roles.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai | anthropic
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`

	// Timeout bounds one planning/assignment/check call.
	Timeout time.Duration `yaml:"timeout"`

	// GenerationTimeout bounds content-generation calls and executor turns,
	// which run much longer than control-flow calls.
	GenerationTimeout time.Duration `yaml:"generation_timeout"`

	MaxTokens int `yaml:"max_tokens"`
}

// WorkforceConfig controls the orchestration loop.
type WorkforceConfig struct {
	MaxReflection    int              `yaml:"max_reflection"`
	PlanModifyBudget int              `yaml:"plan_modify_budget"`
	Executors        []ExecutorConfig `yaml:"executors"`
}

// ExecutorConfig describes one executor agent available for assignment.
type ExecutorConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tools       []string `yaml:"tools"`

	// Model overrides llm.model for this executor when non-empty.
	Model string `yaml:"model"`

	// MaxIterations bounds the tool loop for one subtask.
	MaxIterations int `yaml:"max_iterations"`
}

type ToolsConfig struct {
	WorkspaceRoot  string        `yaml:"workspace_root"`
	ExecTimeout    time.Duration `yaml:"exec_timeout"`
	PythonTimeout  time.Duration `yaml:"python_timeout"`
	BannedCommands []string      `yaml:"banned_commands"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	MetricsAddr  string `yaml:"metrics_addr"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a usable configuration without a config file. The caller
// still needs provider credentials from the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.GenerationTimeout <= 0 {
		cfg.LLM.GenerationTimeout = 300 * time.Second
	}
	if cfg.Workforce.MaxReflection <= 0 {
		cfg.Workforce.MaxReflection = 1
	}
	if cfg.Workforce.PlanModifyBudget <= 0 {
		cfg.Workforce.PlanModifyBudget = 3
	}
	for i := range cfg.Workforce.Executors {
		if cfg.Workforce.Executors[i].MaxIterations <= 0 {
			cfg.Workforce.Executors[i].MaxIterations = 10
		}
	}
	if cfg.Tools.ExecTimeout <= 0 {
		cfg.Tools.ExecTimeout = 60 * time.Second
	}
	if cfg.Tools.PythonTimeout <= 0 {
		cfg.Tools.PythonTimeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate rejects configurations the orchestrator cannot run with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	names := map[string]bool{}
	for _, exec := range c.Workforce.Executors {
		name := strings.TrimSpace(exec.Name)
		if name == "" {
			return fmt.Errorf("executor name is required")
		}
		if names[name] {
			return fmt.Errorf("duplicate executor name %q", name)
		}
		names[name] = true
	}
	return nil
}
