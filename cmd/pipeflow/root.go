package main

import (
	"github.com/spf13/cobra"
)

// rootFlags carries flags every subcommand inherits from the root command.
type rootFlags struct {
	verbose bool
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "pipeflow",
		Short:         "pipeflow runs declarative DAG pipelines over batches of samples",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newRunCmd(flags, app))
	cmd.AddCommand(newResumeCmd(flags, app))
	cmd.AddCommand(newValidateCmd(flags, app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
