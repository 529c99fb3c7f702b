package checkpoint

import (
	"time"

	"github.com/arota-dev/pipeflow/internal/model"
)

// Status values a Checkpoint's lifecycle can be in.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Checkpoint is the on-disk record of one multi-sample pipeline run,
// persisted after every sample-level transition so a run can resume from
// the next uncompleted sample after an interruption.
type Checkpoint struct {
	ID                  string               `json:"id"`
	PipelineID          string               `json:"pipeline_id"`
	Variant             string               `json:"variant"`
	Status              string               `json:"status"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	Total               int                  `json:"total"`
	CompletedCount      int                  `json:"completed_count"`
	FailedCount         int                  `json:"failed_count"`
	SampleContentHashes []string             `json:"sample_content_hashes"`
	CompletedResults    []model.SampleResult `json:"completed_results"`
	LastError           string               `json:"last_error,omitempty"`
	ErrorCount          int                  `json:"error_count"`
}

// New constructs a fresh Running checkpoint for a run of total samples.
func New(id, pipelineID, variant string, hashes []string) *Checkpoint {
	now := timeNow()
	return &Checkpoint{
		ID:                  id,
		PipelineID:          pipelineID,
		Variant:             variant,
		Status:              StatusRunning,
		CreatedAt:           now,
		UpdatedAt:           now,
		Total:               len(hashes),
		SampleContentHashes: append([]string(nil), hashes...),
	}
}

// RecordSample appends one sample's outcome and bumps the counters,
// updating UpdatedAt. Called after every sample, success or failure.
func (c *Checkpoint) RecordSample(result model.SampleResult) {
	c.CompletedResults = append(c.CompletedResults, result)
	c.CompletedCount++
	if !result.Successful() {
		c.FailedCount++
	}
	c.UpdatedAt = timeNow()
}

// RecordAttemptError bumps the retry-exhaustion error counters without
// recording a sample result; called when a scheduler-level exception (not a
// per-step failure) consumes an attempt.
func (c *Checkpoint) RecordAttemptError(err error) {
	c.LastError = err.Error()
	c.ErrorCount++
	c.UpdatedAt = timeNow()
}

// Finish marks the checkpoint Completed or Failed and stamps UpdatedAt.
func (c *Checkpoint) Finish(failed bool) {
	if failed {
		c.Status = StatusFailed
	} else {
		c.Status = StatusCompleted
	}
	c.UpdatedAt = timeNow()
}

// timeNow is a thin indirection so tests can stub wall-clock time without
// reaching for a clock-injection library the rest of the corpus never uses.
var timeNow = time.Now
