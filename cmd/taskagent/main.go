package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pocketforge/taskagent/agent"
	"github.com/pocketforge/taskagent/config"
	"github.com/pocketforge/taskagent/llm"
	"github.com/pocketforge/taskagent/logging"
	"github.com/pocketforge/taskagent/session"
)

var (
	version = "0.1.0"
	cfgFile string
	model   string
	baseDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskagent <task>",
		Short: "Autonomous coding agent turn loop",
		Long: `Taskagent runs an autonomous coding agent against a project directory.
Each turn it renders the conversation and open editor files into a prompt,
queries the configured model, and executes the single command the model
chose, until the model exits or a failure aborts the session.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model identifier (overrides config)")
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "project root (default: current directory)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskagent version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if model != "" {
		cfg.Agent.Model = model
	}
	if baseDir != "" {
		cfg.Session.BasePath = baseDir
	}
	if cfg.Session.BasePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		cfg.Session.BasePath = wd
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, nil)
	if cfg.Log.File != "" {
		fileLogger, f, err := logging.NewFile(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = fileLogger
	}

	retry := llm.DefaultRetryPolicy()
	retry.MaxRetries = cfg.LLM.MaxRetries

	client := llm.NewClientFromEnv(llm.WithRetryPolicy(retry))
	defer client.Close()

	ag := agent.New(agent.Config{
		Name:        cfg.Agent.Name,
		Model:       cfg.Agent.Model,
		Temperature: cfg.Agent.Temperature,
	}, client, agent.WithLogger(logger))

	sess := session.New(session.Config{
		BasePath: cfg.Session.BasePath,
		PageSize: cfg.Session.PageSize,
		MaxTurns: cfg.Session.MaxTurns,
	}, logger)

	// Ctrl-C cancels the in-flight turn; the controller propagates the
	// cancellation without classifying it.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.Run(ctx, ag, args[0]); err != nil {
		return err
	}

	fmt.Printf("Session %s finished after %d events.\n", sess.ID(), sess.Events().Len())
	return nil
}
