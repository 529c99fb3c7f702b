package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newResumeCmd is `run` with AutoResume pinned on: it loads the same
// config/samples pair and continues from the latest matching checkpoint
// instead of starting fresh.
func newResumeCmd(root *rootFlags, app *AppContext) *cobra.Command {
	opts := runOptions{AutoResume: true}

	cmd := &cobra.Command{
		Use:   "resume <config-file>",
		Short: "Resume a checkpointed pipeline run from its last completed sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath = args[0]
			opts.AutoResume = true
			opts.Verbose = root.verbose
			opts.NonInteractive = opts.JSON || !term.IsTerminal(int(os.Stdout.Fd()))
			return runPipeline(cmd.Context(), app, opts)
		},
	}

	bindRunFlags(cmd, &opts)
	return cmd
}
