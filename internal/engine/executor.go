package engine

import (
	"context"
	"reflect"
	"sync"
	"time"

	pipeflowerrors "github.com/arota-dev/pipeflow/pkg/errors"
)

// ProgressFunc is invoked after each transition: wave submitted, task
// completed (success or fail), task skipped. It receives an immutable
// snapshot taken under the executor's bookkeeping lock.
type ProgressFunc func(Progress)

// Executor is a bounded worker pool. Workers sets the cap W on concurrently
// executing task bodies; nested executors (e.g. a batch sub-executor spawned
// from within a task body) each carry their own independent cap.
type Executor struct {
	Workers int
}

// NewExecutor constructs an Executor with the given worker cap. A cap <= 0
// is treated as 1, since an executor that can run nothing is never useful.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = 1
	}
	return &Executor{Workers: workers}
}

// bookkeeping is the mutex-guarded state shared by Run/RunWithDeps's worker
// goroutines: the index-keyed result slice plus the running counters a
// Progress snapshot is built from.
type bookkeeping struct {
	mu        sync.Mutex
	results   []TaskResult
	done      map[string]bool
	completed int
	failed    int
	skipped   int
	running   int
	total     int
	startTime time.Time
}

func newBookkeeping(total int) *bookkeeping {
	return &bookkeeping{
		results:   make([]TaskResult, total),
		done:      make(map[string]bool, total),
		total:     total,
		startTime: time.Now(),
	}
}

func (b *bookkeeping) snapshot() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Progress{
		Total:     b.total,
		Completed: b.completed,
		Failed:    b.failed,
		Skipped:   b.skipped,
		Running:   b.running,
		Pending:   b.total - b.completed - b.running,
		StartTime: b.startTime,
		Now:       time.Now(),
	}
}

func (b *bookkeeping) recordStart() {
	b.mu.Lock()
	b.running++
	b.mu.Unlock()
}

func (b *bookkeeping) recordFinish(idx int, result TaskResult) {
	b.mu.Lock()
	b.results[idx] = result
	b.done[result.TaskID] = true
	b.running--
	b.completed++
	if result.Skipped {
		b.skipped++
	} else if !result.Success {
		b.failed++
	}
	b.mu.Unlock()
}

func report(onProgress ProgressFunc, b *bookkeeping) {
	if onProgress != nil {
		onProgress(b.snapshot())
	}
}

// errorKind derives the short class name an error is reported under, the Go
// analogue of the original runner's "exception class name" convention: a
// tagged pipeflowerrors kind if there is one, otherwise the error's dynamic
// type name.
func errorKind(err error) string {
	if kind := pipeflowerrors.KindOf(err); kind != "" {
		return kind
	}
	t := reflect.TypeOf(err)
	if t == nil {
		return "error"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func runTask(ctx context.Context, task Task) TaskResult {
	start := time.Now()
	value, tokens, parserStats, err := task.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return TaskResult{
			TaskID:        task.ID,
			Success:       false,
			ErrorKind:     errorKind(err),
			ErrorMessage:  err.Error(),
			ExecutionTime: elapsed,
		}
	}
	return TaskResult{
		TaskID:        task.ID,
		Success:       true,
		Value:         value,
		TokenCounts:   tokens,
		ParserStats:   parserStats,
		ExecutionTime: elapsed,
	}
}

// buildSummary assembles the final Summary from a completed bookkeeping
// pass, given the Required flag per task id for the ErrorSummary's
// RequiredFailures subset.
func buildSummary(b *bookkeeping, required map[string]bool) Summary {
	errs := newErrorSummary()
	for _, r := range b.results {
		if r.TaskID == "" {
			continue
		}
		if r.Skipped {
			errs.addSkipped(r.TaskID)
			continue
		}
		if !r.Success {
			errs.addFailure(r.TaskID, r.ErrorKind, required[r.TaskID])
		}
	}
	return Summary{
		Results:  b.results,
		Progress: b.snapshot(),
		Errors:   *errs,
	}
}

// Run executes independent tasks (no inter-task dependencies) against the
// pool of at most e.Workers workers. Tasks may run in any order and any
// parallelism up to the cap; results are returned in input order.
func (e *Executor) Run(ctx context.Context, tasks []Task, onProgress ProgressFunc) (Summary, error) {
	b := newBookkeeping(len(tasks))
	required := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		required[t.ID] = t.Required
	}

	sem := make(chan struct{}, e.Workers)
	var wg sync.WaitGroup

	report(onProgress, b)
	for idx, task := range tasks {
		wg.Add(1)
		go func(idx int, task Task) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				b.recordStart()
				b.recordFinish(idx, TaskResult{
					TaskID:       task.ID,
					Success:      false,
					ErrorKind:    "Timeout",
					ErrorMessage: ctx.Err().Error(),
				})
				report(onProgress, b)
				return
			}
			defer func() { <-sem }()

			b.recordStart()
			report(onProgress, b)
			result := runTask(ctx, task)
			b.recordFinish(idx, result)
			report(onProgress, b)
		}(idx, task)
	}
	wg.Wait()

	return buildSummary(b, required), nil
}

// RunWithDeps executes tasks with dependency gating: a task only starts
// once all its Dependencies have a recorded result, and is skipped outright
// if any required dependency failed or was itself skipped. Stratification
// uses the same Kahn algorithm as the dependency analyzer, but over task ids
// rather than step ids.
func (e *Executor) RunWithDeps(ctx context.Context, tasks []Task, onProgress ProgressFunc) (Summary, error) {
	order := make([]string, 0, len(tasks))
	byID := make(map[string]Task, len(tasks))
	dependsOn := make(map[string][]string, len(tasks))
	required := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		order = append(order, t.ID)
		byID[t.ID] = t
		dependsOn[t.ID] = t.Dependencies
		required[t.ID] = t.Required
	}

	waves, err := stratifyIDs(order, dependsOn)
	if err != nil {
		return Summary{}, err
	}

	indexOf := make(map[string]int, len(tasks))
	for i, id := range order {
		indexOf[id] = i
	}

	b := newBookkeeping(len(tasks))
	sem := make(chan struct{}, e.Workers)
	resultByID := make(map[string]TaskResult, len(tasks))
	var resultsMu sync.Mutex

	report(onProgress, b)
	for _, wave := range waves {
		var ready []string
		for _, id := range wave {
			resultsMu.Lock()
			skip, skipReason := dependencyBlocked(byID[id].Dependencies, resultByID, required)
			resultsMu.Unlock()
			if skip {
				result := TaskResult{
					TaskID:       id,
					Skipped:      true,
					ErrorKind:    "DependencyFailure",
					ErrorMessage: skipReason,
				}
				resultsMu.Lock()
				resultByID[id] = result
				resultsMu.Unlock()
				b.recordStart()
				b.recordFinish(indexOf[id], result)
				report(onProgress, b)
				continue
			}
			ready = append(ready, id)
		}

		if len(ready) == 0 {
			continue
		}

		var wg sync.WaitGroup
		for _, id := range ready {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					result := TaskResult{TaskID: id, Success: false, ErrorKind: "Timeout", ErrorMessage: ctx.Err().Error()}
					resultsMu.Lock()
					resultByID[id] = result
					resultsMu.Unlock()
					b.recordStart()
					b.recordFinish(indexOf[id], result)
					report(onProgress, b)
					return
				}
				defer func() { <-sem }()

				b.recordStart()
				report(onProgress, b)
				result := runTask(ctx, byID[id])
				resultsMu.Lock()
				resultByID[id] = result
				resultsMu.Unlock()
				b.recordFinish(indexOf[id], result)
				report(onProgress, b)
			}(id)
		}
		wg.Wait()
	}

	return buildSummary(b, required), nil
}

// dependencyBlocked reports whether a task must be skipped because a
// dependency was itself skipped, or was required and failed.
func dependencyBlocked(deps []string, resultByID map[string]TaskResult, required map[string]bool) (bool, string) {
	for _, dep := range deps {
		res, ok := resultByID[dep]
		if !ok {
			continue
		}
		if res.Skipped || (required[dep] && !res.Success) {
			return true, "required dependency failed"
		}
	}
	return false, ""
}
