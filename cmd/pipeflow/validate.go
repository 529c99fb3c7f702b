package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arota-dev/pipeflow/internal/config"
)

func newValidateCmd(root *rootFlags, app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Parse and validate a pipeline configuration without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}

	return cmd
}

func runValidate(path string) error {
	pipeline, err := config.ParseConfig(path)
	if err != nil {
		fmt.Fprintf(stderrWriter, "invalid pipeline: %v\n", err)
		exitFunc(1)
		return nil
	}

	fmt.Fprintf(os.Stdout, "%s: valid (%d steps)\n", pipeline.Name, len(pipeline.Steps))
	return nil
}
