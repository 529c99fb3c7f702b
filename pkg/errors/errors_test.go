package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("config.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "config.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "config.yaml")
}

func TestExecutionErrorIncludesStepContext(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("command failed")
	err := NewExecutionError("install_git", underlying)

	var executionErr *ExecutionError
	require.ErrorAs(t, err, &executionErr)
	require.Equal(t, "install_git", executionErr.StepID)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestCycleErrorRendersPath(t *testing.T) {
	t.Parallel()

	err := NewCycleError([]string{"a", "b", "a"})
	require.Contains(t, err.Error(), "a -> b -> a")
	require.Equal(t, "CycleError", KindOf(err))
}

func TestDependencyFailureErrorKind(t *testing.T) {
	t.Parallel()

	err := NewDependencyFailureError("step_b", "step_a")
	require.Contains(t, err.Error(), "step_b")
	require.Contains(t, err.Error(), "step_a")
	require.Equal(t, "DependencyFailure", KindOf(err))
}

func TestStepExecutionErrorUnwraps(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("boom")
	err := NewStepExecutionError("step_a", "ValueError", underlying)

	var stepErr *StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "ValueError", stepErr.Kind)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "StepExecutionError", KindOf(err))
}

func TestKindOfReturnsEmptyForPlainError(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", KindOf(stdErrors.New("plain")))
}
