package scheduler

import "github.com/arota-dev/pipeflow/internal/model"

// Sample is one row of test data driving a single pipeline execution: the
// declared input fields a pipeline's steps read from via input_mapping.
type Sample struct {
	ID     string
	Fields map[string]model.Value
}
