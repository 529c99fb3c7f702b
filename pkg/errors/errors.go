package errors

import (
	"fmt"
	"strings"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure while executing a step.
type ExecutionError struct {
	StepID string
	Err    error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(stepID string, err error) error {
	return &ExecutionError{StepID: stepID, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepID != "" {
		return fmt.Sprintf("execution error on step %s: %v", e.StepID, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigError reports a pipeline that fails validation at construction time:
// unknown dependency, duplicate id or output key, bad step kind, inconsistent
// code-node fields, bad aggregation strategy, or unknown variant.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError constructs a ConfigError.
func NewConfigError(field, message string) error {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// ErrorKind implements errorKinder.
func (e *ConfigError) ErrorKind() string { return "ConfigError" }

// CycleError is raised by the dependency analyzer when a cycle survives
// construction-time checks. Path is the cycle itself, e.g. a -> b -> a.
type CycleError struct {
	Path []string
}

// NewCycleError constructs a CycleError carrying the offending cycle path.
func NewCycleError(path []string) error {
	return &CycleError{Path: append([]string(nil), path...)}
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// ErrorKind implements errorKinder.
func (e *CycleError) ErrorKind() string { return "CycleError" }

// StepExecutionError is recorded inside a StepResult when a task body fails.
// Kind carries the short class name of the underlying failure (e.g. "Timeout").
type StepExecutionError struct {
	StepID string
	Kind   string
	Err    error
}

// NewStepExecutionError constructs a StepExecutionError.
func NewStepExecutionError(stepID, kind string, err error) error {
	return &StepExecutionError{StepID: stepID, Kind: kind, Err: err}
}

func (e *StepExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind != "" {
		return fmt.Sprintf("step %s failed (%s): %v", e.StepID, e.Kind, e.Err)
	}
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *StepExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorKind implements errorKinder.
func (e *StepExecutionError) ErrorKind() string { return "StepExecutionError" }

// DependencyFailureError marks a task or step skipped because a required
// producer failed upstream of it.
type DependencyFailureError struct {
	ID          string
	FailedDepID string
}

// NewDependencyFailureError constructs a DependencyFailureError.
func NewDependencyFailureError(id, failedDepID string) error {
	return &DependencyFailureError{ID: id, FailedDepID: failedDepID}
}

func (e *DependencyFailureError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("required dependency failed: %s (blocked on %s)", e.ID, e.FailedDepID)
}

// ErrorKind implements errorKinder.
func (e *DependencyFailureError) ErrorKind() string { return "DependencyFailure" }

// TimeoutError is raised when a code runner reports timed_out=true. Callers
// wrap this as a StepExecutionError with kind "Timeout".
type TimeoutError struct {
	StepID  string
	Limit   string
	Elapsed string
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(stepID, limit, elapsed string) error {
	return &TimeoutError{StepID: stepID, Limit: limit, Elapsed: elapsed}
}

func (e *TimeoutError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("step %s timed out after %s (limit %s)", e.StepID, e.Elapsed, e.Limit)
}

// ErrorKind implements errorKinder.
func (e *TimeoutError) ErrorKind() string { return "Timeout" }

// CheckpointIntegrityWarning signals a sample-hash mismatch on resume; the
// driver logs this and starts a fresh checkpoint rather than treating it as
// fatal.
type CheckpointIntegrityWarning struct {
	CheckpointID string
	Message      string
}

// NewCheckpointIntegrityWarning constructs a CheckpointIntegrityWarning.
func NewCheckpointIntegrityWarning(checkpointID, message string) error {
	return &CheckpointIntegrityWarning{CheckpointID: checkpointID, Message: message}
}

func (e *CheckpointIntegrityWarning) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("checkpoint %s integrity warning: %s", e.CheckpointID, e.Message)
}

// ErrorKind implements errorKinder.
func (e *CheckpointIntegrityWarning) ErrorKind() string { return "CheckpointIntegrityWarning" }

// ExecutorError marks a programmer error in the bounded executor: an
// unreachable task set, or a dependency id with no matching task.
type ExecutorError struct {
	Message string
}

// NewExecutorError constructs an ExecutorError.
func NewExecutorError(message string) error {
	return &ExecutorError{Message: message}
}

func (e *ExecutorError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("executor error: %s", e.Message)
}

// ErrorKind implements errorKinder.
func (e *ExecutorError) ErrorKind() string { return "ExecutorError" }

// errorKinder is implemented by every error kind above except ParseError and
// ExecutionError; KindOf recovers the short kind string without a type
// switch at call sites.
type errorKinder interface {
	ErrorKind() string
}

// KindOf returns the error kind string for an error that implements
// errorKinder, or "" otherwise (including ParseError and ExecutionError).
func KindOf(err error) string {
	if k, ok := err.(errorKinder); ok {
		return k.ErrorKind()
	}
	return ""
}
