package checkpoint

import (
	"context"
	"fmt"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/logger"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/scheduler"
	"github.com/google/uuid"
)

// sampleExecutor is the slice of Scheduler the driver depends on, narrowed so
// tests can stub it without building a full Scheduler.
type sampleExecutor interface {
	ExecuteSample(ctx context.Context, pipeline *config.PipelineSpec, sample scheduler.Sample, variant string) (model.SampleResult, error)
}

// Options configures one Driver.Execute run.
type Options struct {
	AutoResume  bool
	MaxRetries  int
	KeepLatestN int
}

// Driver ties a Scheduler, a Store and the Checkpoint record together into
// spec §4.F's resumable, retrying execute loop.
type Driver struct {
	Scheduler sampleExecutor
	Store     *Store
	Log       *logger.Logger
}

// NewDriver constructs a Driver. store may be nil to run without
// checkpointing (every sample is executed fresh, nothing is persisted).
func NewDriver(sched sampleExecutor, store *Store, log *logger.Logger) *Driver {
	return &Driver{Scheduler: sched, Store: store, Log: log}
}

// Execute runs every sample in samples against variant, honoring resume and
// retry semantics, and returns one SampleResult per sample in input order.
func (d *Driver) Execute(ctx context.Context, pipeline *config.PipelineSpec, samples []scheduler.Sample, variant string, opts Options) ([]model.SampleResult, error) {
	hashes := make([]string, len(samples))
	for i, sample := range samples {
		h, err := SampleHash(sample.Fields)
		if err != nil {
			return nil, fmt.Errorf("hashing sample %s: %w", sample.ID, err)
		}
		hashes[i] = h
	}

	cp, startIndex, results := d.resume(pipeline, variant, hashes, opts)

	maxAttempts := opts.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var loopErr error
	for i := startIndex; i < len(samples); i++ {
		result, err := d.executeWithRetry(ctx, pipeline, samples[i], variant, maxAttempts, cp)
		if err != nil {
			loopErr = err
			break
		}
		results = append(results, result)
		cp.RecordSample(result)
		d.persist(cp)
	}

	cp.Finish(loopErr != nil)
	d.persist(cp)
	if opts.KeepLatestN > 0 && d.Store != nil {
		if err := d.Store.Cleanup(pipeline.Name, variant, opts.KeepLatestN); err != nil && d.Log != nil {
			d.Log.WithFields(map[string]any{"error": err.Error()}).Warn("checkpoint cleanup failed")
		}
	}

	if loopErr != nil {
		return results, loopErr
	}
	return results, nil
}

// executeWithRetry attempts one sample up to maxAttempts times, counting
// only scheduler-level errors (not per-step failures, already captured in
// the returned SampleResult) as attempts.
func (d *Driver) executeWithRetry(ctx context.Context, pipeline *config.PipelineSpec, sample scheduler.Sample, variant string, maxAttempts int, cp *Checkpoint) (model.SampleResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := d.Scheduler.ExecuteSample(ctx, pipeline, sample, variant)
		if err == nil {
			return result, nil
		}
		lastErr = err
		cp.RecordAttemptError(err)
		d.persist(cp)
	}
	return model.SampleResult{
		SampleID:     sample.ID,
		Variant:      variant,
		ErrorMessage: lastErr.Error(),
	}, nil
}

// resume loads a prior Running checkpoint when auto-resume is requested and
// its sample hashes agree pairwise with the current list, reusing its
// completed results and continuing from the next uncompleted index.
// Otherwise it starts a fresh checkpoint.
func (d *Driver) resume(pipeline *config.PipelineSpec, variant string, hashes []string, opts Options) (*Checkpoint, int, []model.SampleResult) {
	if opts.AutoResume && d.Store != nil {
		prior, ok, err := d.Store.LatestRunning(pipeline.Name, variant)
		if err != nil && d.Log != nil {
			d.Log.WithFields(map[string]any{"error": err.Error()}).Warn("checkpoint lookup failed")
		}
		if ok && hashesAgree(prior.SampleContentHashes, hashes) {
			return prior, len(prior.CompletedResults), append([]model.SampleResult(nil), prior.CompletedResults...)
		}
		if ok && d.Log != nil {
			d.Log.WithFields(map[string]any{"pipeline": pipeline.Name, "variant": variant}).Warn("checkpoint sample hashes differ from current run, starting fresh")
		}
	}
	return New(uuid.NewString(), pipeline.Name, variant, hashes), 0, nil
}

// hashesAgree reports whether recorded's entries match current's pairwise
// up to len(recorded),
// i.e. every sample the checkpoint already recorded still matches the
// current run's corresponding sample.
func hashesAgree(recorded, current []string) bool {
	if len(recorded) > len(current) {
		return false
	}
	for i := range recorded {
		if recorded[i] != current[i] {
			return false
		}
	}
	return true
}

func (d *Driver) persist(cp *Checkpoint) {
	if d.Store == nil {
		return
	}
	if err := d.Store.Save(context.Background(), cp); err != nil && d.Log != nil {
		d.Log.WithFields(map[string]any{"error": err.Error()}).Warn("checkpoint write failed")
	}
}
