package engine

import (
	"github.com/arota-dev/pipeflow/internal/logger"
	"github.com/arota-dev/pipeflow/internal/model"
)

// SampleContext is the per-sample key/value store steps read their inputs
// from and write their outputs into. It replaces the old executor's global,
// config-wide execution state: each sample in a pipeline run gets its own
// context, seeded independently, so concurrent samples never share state.
type SampleContext struct {
	values map[string]model.Value
	log    *logger.Logger
}

// NewSampleContext creates a context seeded from the sample's initial
// fields (e.g. the row data driving this sample).
func NewSampleContext(seed map[string]model.Value, log *logger.Logger) *SampleContext {
	values := make(map[string]model.Value, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &SampleContext{values: values, log: log}
}

// Get returns the value stored under key. Only a successful step writes into
// the context; a skipped or failed step does not, so reads of those keys
// fall back to an empty string and log a warning rather than panicking a
// downstream step.
func (c *SampleContext) Get(key string) model.Value {
	if v, ok := c.values[key]; ok {
		return v
	}
	if c.log != nil {
		c.log.Warn("context key not found, defaulting to empty string: " + key)
	}
	return model.NewString("")
}

// Lookup is Get's non-defaulting counterpart, used by callers that need to
// distinguish "absent" from "present and empty".
func (c *SampleContext) Lookup(key string) (model.Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set records a step's output under its output_key. Only called for steps
// that completed successfully.
func (c *SampleContext) Set(key string, value model.Value) {
	c.values[key] = value
}

// Snapshot returns a shallow copy of the context's current values, used to
// build a sample's FinalOutputs.
func (c *SampleContext) Snapshot() map[string]model.Value {
	out := make(map[string]model.Value, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
