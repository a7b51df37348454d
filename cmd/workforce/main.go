// Package main provides the CLI entry point for the workforce orchestration
// engine.
//
// Workforce decomposes a natural-language task into a plan of subtasks,
// routes each subtask to a specialized executor agent with sandboxed tools,
// verifies results, and produces a single gated final answer.
//
// # Basic Usage
//
// Run a task:
//
//	workforce run "Summarize the latest Go release notes" --config workforce.yaml
//
// # Environment Variables
//
//   - WORKFORCE_CONFIG: Path to configuration file
//   - OPENAI_API_KEY: OpenAI API key
//   - ANTHROPIC_API_KEY: Anthropic API key
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/workforce/internal/agent"
	"github.com/haasonsaas/workforce/internal/agent/providers"
	"github.com/haasonsaas/workforce/internal/config"
	"github.com/haasonsaas/workforce/internal/observability"
	"github.com/haasonsaas/workforce/internal/tools/exec"
	"github.com/haasonsaas/workforce/internal/tools/files"
	"github.com/haasonsaas/workforce/internal/tools/mathtool"
	"github.com/haasonsaas/workforce/internal/tools/python"
	"github.com/haasonsaas/workforce/internal/tools/web"
	"github.com/haasonsaas/workforce/internal/workforce"
)

// Build information, populated by ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env file is not an error; credentials may come from the
	// real environment.
	_ = godotenv.Load()

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "workforce",
		Short:        "Workforce - hierarchical multi-agent task orchestration",
		Long:         "Workforce plans, assigns, executes, and verifies subtasks to answer one overall task.",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildRunCmd())
	return rootCmd
}

func buildRunCmd() *cobra.Command {
	var configPath string
	var runID string

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run one task through the orchestration engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("WORKFORCE_CONFIG")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec, err := runTask(ctx, cfg, args[0], runID)
			if err != nil {
				return err
			}
			if rec.FinalOutput == "" {
				return fmt.Errorf("run produced no final answer")
			}
			fmt.Println(rec.FinalOutput)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to configuration file")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (generated when empty)")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// runTask wires providers, tools, and roles from configuration and drives one
// run to completion.
func runTask(ctx context.Context, cfg *config.Config, task, runID string) (*workforce.TaskRecorder, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	metrics := observability.NewMetrics()
	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "workforce",
		ServiceVersion: version,
		Endpoint:       cfg.Observability.OTLPEndpoint,
	})
	defer func() { _ = shutdown(context.Background()) }()

	if cfg.Observability.MetricsAddr != "" {
		go serveMetrics(cfg.Observability.MetricsAddr)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	workspace, err := files.NewWorkspace(cfg.Tools.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	sandbox := exec.NewSandbox(workspace)
	sandbox.SetTimeout(cfg.Tools.ExecTimeout)
	sandbox.SetBannedCommands(cfg.Tools.BannedCommands)

	available := map[string]agent.Tool{}
	for _, tool := range []agent.Tool{
		exec.NewBashTool(sandbox),
		python.NewToolWithTimeout(sandbox, cfg.Tools.PythonTimeout),
		mathtool.NewTool(),
		web.NewFetchTool(),
	} {
		available[tool.Name()] = tool
	}

	newGateway := func(role, model string, generation bool) *agent.Gateway {
		timeout := cfg.LLM.Timeout
		if generation {
			timeout = cfg.LLM.GenerationTimeout
		}
		if model == "" {
			model = cfg.LLM.Model
		}
		return agent.NewGateway(provider, agent.GatewayConfig{
			Model:     model,
			Timeout:   timeout,
			MaxTokens: cfg.LLM.MaxTokens,
			Role:      role,
			Logger:    logger,
			Metrics:   metrics,
		})
	}

	executors := map[string]*workforce.Executor{}
	for _, ec := range cfg.Workforce.Executors {
		registry := agent.NewToolRegistry()
		for _, name := range ec.Tools {
			tool, ok := available[name]
			if !ok {
				return nil, fmt.Errorf("executor %q references unknown tool %q", ec.Name, name)
			}
			registry.Register(tool)
		}
		executors[ec.Name] = workforce.NewExecutor(workforce.ExecutorConfig{
			Descriptor: workforce.ExecutorDescriptor{
				Name:        ec.Name,
				Description: ec.Description,
				ToolNames:   ec.Tools,
			},
			Gateway:  newGateway("executor", ec.Model, true),
			Registry: registry,
			MaxSteps: ec.MaxIterations,
			Logger:   logger,
		})
	}

	orchestrator := workforce.NewOrchestrator(workforce.OrchestratorConfig{
		Planner: workforce.NewPlanner(workforce.PlannerConfig{
			Gateway:          newGateway("planner", "", false),
			ModifyPlanBudget: cfg.Workforce.PlanModifyBudget,
			Logger:           logger,
			Metrics:          metrics,
		}),
		Assigner:      workforce.NewAssigner(newGateway("assigner", "", false), logger),
		Answerer:      workforce.NewAnswerer(newGateway("answerer", "", true), logger),
		Executors:     executors,
		MaxReflection: cfg.Workforce.MaxReflection,
		Logger:        logger,
		Metrics:       metrics,
		Tracer:        tracer,
	})

	return orchestrator.Run(ctx, task, runID)
}

func buildProvider(cfg *config.Config) (agent.LLMProvider, error) {
	switch cfg.LLM.Provider {
	case "openai":
		apiKey := cfg.LLM.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.BaseURL != "" {
			return providers.NewOpenAIProviderWithBaseURL(apiKey, cfg.LLM.BaseURL), nil
		}
		return providers.NewOpenAIProvider(apiKey), nil
	case "anthropic":
		apiKey := cfg.LLM.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       apiKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.Model,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintln(os.Stderr, "metrics server:", err)
	}
}
