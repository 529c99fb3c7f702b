package engine

import (
	"context"
	"time"

	"github.com/arota-dev/pipeflow/internal/model"
)

// TaskFunc is a task body. It is never invoked while the executor's bookkeeping
// lock is held.
type TaskFunc func(ctx context.Context) (model.Value, model.TokenCounts, *model.ParserStats, error)

// Task is one unit of work submitted to the bounded executor. Dependencies is
// only consulted by RunWithDeps; Run ignores it.
type Task struct {
	ID           string
	Dependencies []string
	Required     bool
	Run          TaskFunc
}

// TaskResult is the outcome of one Task.
type TaskResult struct {
	TaskID        string
	Success       bool
	Skipped       bool
	Value         model.Value
	TokenCounts   model.TokenCounts
	ParserStats   *model.ParserStats
	ErrorKind     string
	ErrorMessage  string
	ExecutionTime time.Duration
}
