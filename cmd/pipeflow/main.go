package main

import (
	"context"
	"fmt"
	"os"

	logginginfra "github.com/arota-dev/pipeflow/internal/infrastructure/logging"
	"github.com/arota-dev/pipeflow/internal/logger"
)

func main() {
	appLogger, err := logger.New(logger.Options{
		Level:         "info",
		HumanReadable: true,
		Component:     "cli",
		Layer:         "infrastructure",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application logger: %v\n", err)
		os.Exit(1)
	}

	correlationID := logginginfra.GenerateCorrelationID()
	ctx := logginginfra.WithCorrelationID(context.Background(), correlationID)

	app := &AppContext{Logger: appLogger}

	rootCmd := newRootCmd(app)
	appLogger.WithFields(map[string]any{"pid": os.Getpid()}).Info("starting pipeflow command")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
