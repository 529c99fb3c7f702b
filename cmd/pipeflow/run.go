package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arota-dev/pipeflow/internal/checkpoint"
	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/logger"
	"github.com/arota-dev/pipeflow/internal/scheduler"
	"github.com/arota-dev/pipeflow/internal/tui/dashboard"
)

// runOptions carries every flag shared by `run` and `resume`: the two
// commands differ only in whether AutoResume defaults to true.
type runOptions struct {
	ConfigPath      string
	SamplesPath     string
	Variant         string
	CheckpointDir   string
	AutoResume      bool
	MaxRetries      int
	KeepCheckpoints int
	AgentURL        string
	AgentKey        string
	ParseJSONOutput bool
	NonInteractive  bool
	JSON            bool
	Verbose         bool
}

func newRunCmd(root *rootFlags, app *AppContext) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <config-file>",
		Short: "Execute a pipeline over a batch of samples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = args[0]
			opts.Verbose = root.verbose
			opts.NonInteractive = opts.JSON || !term.IsTerminal(int(os.Stdout.Fd()))
			return runPipeline(cmd.Context(), app, opts)
		},
	}

	bindRunFlags(cmd, &opts)
	return cmd
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.SamplesPath, "samples", "s", "", "Path to a YAML file holding the list of samples to run")
	cmd.MarkFlagRequired("samples") //nolint:errcheck
	cmd.Flags().StringVar(&opts.Variant, "variant", "baseline", "Named variant to run (\"baseline\" for the baseline override table)")
	cmd.Flags().StringVar(&opts.CheckpointDir, "checkpoint-dir", ".pipeflow/checkpoints", "Directory checkpoint files are written to")
	cmd.Flags().BoolVar(&opts.AutoResume, "auto-resume", false, "Resume a matching in-progress checkpoint instead of starting fresh")
	cmd.Flags().IntVar(&opts.MaxRetries, "max-retries", 0, "Retries per sample after a scheduler-level failure")
	cmd.Flags().IntVar(&opts.KeepCheckpoints, "keep-checkpoints", 5, "Checkpoint files to retain per pipeline/variant after the run finishes")
	cmd.Flags().StringVar(&opts.AgentURL, "agent-url", os.Getenv("PIPEFLOW_AGENT_URL"), "Base URL of the agent/flow service backing agent_flow steps")
	cmd.Flags().StringVar(&opts.AgentKey, "agent-key", os.Getenv("PIPEFLOW_AGENT_KEY"), "Bearer token for the agent/flow service")
	cmd.Flags().BoolVar(&opts.ParseJSONOutput, "parse-json-output", false, "Parse each agent_flow step's raw text output as JSON instead of passing it through as a string")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print results as JSON instead of launching the interactive dashboard")
}

func runPipeline(ctx context.Context, app *AppContext, opts runOptions) error {
	log := app.LoggerFor("command.run")
	if opts.Verbose {
		if verboseLog, err := logger.New(logger.Options{Level: "debug", HumanReadable: true, Component: "command.run", Layer: "infrastructure"}); err == nil {
			log = verboseLog
		}
	}

	pipeline, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	samples, err := loadSamples(opts.SamplesPath)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("samples file %s contains no samples", opts.SamplesPath)
	}

	store, err := checkpoint.NewStore(opts.CheckpointDir)
	if err != nil {
		return err
	}

	if opts.NonInteractive {
		return runNonInteractive(ctx, pipeline, samples, store, opts, log)
	}
	return runInteractive(pipeline, samples, store, opts, log)
}

func runNonInteractive(ctx context.Context, pipeline *config.PipelineSpec, samples []scheduler.Sample, store *checkpoint.Store, opts runOptions, log *logger.Logger) error {
	sched, err := buildScheduler(pipeline, opts.AgentURL, opts.AgentKey, opts.ParseJSONOutput, logProgressSink{log: log}, log)
	if err != nil {
		return err
	}

	driver := checkpoint.NewDriver(sched, store, log)
	results, err := driver.Execute(ctx, pipeline, samples, opts.Variant, checkpoint.Options{
		AutoResume:  opts.AutoResume,
		MaxRetries:  opts.MaxRetries,
		KeepLatestN: opts.KeepCheckpoints,
	})
	if err != nil {
		return err
	}

	return printResults(results, opts.JSON)
}

func runInteractive(pipeline *config.PipelineSpec, samples []scheduler.Sample, store *checkpoint.Store, opts runOptions, log *logger.Logger) error {
	sched, err := buildScheduler(pipeline, opts.AgentURL, opts.AgentKey, opts.ParseJSONOutput, nil, log)
	if err != nil {
		return err
	}

	cached := loadCachedStatuses(store, pipeline.Name, opts.Variant)
	m := dashboard.NewModel(pipeline, opts.Variant, sched, samples, cached)

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
