package runtime

import (
	"context"
	"os/exec"
	"testing"

	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireInterpreter(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available on PATH", name)
	}
}

func TestLocalCodeRunnerExecutesPythonBody(t *testing.T) {
	requireInterpreter(t, "python3")
	t.Parallel()

	runner := NewLocalCodeRunner("python3")
	result, err := runner.RunCode(context.Background(), "python", "output = inputs['x'] + 1", map[string]model.Value{
		"x": model.NewNumber(4),
	}, 5000, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	n, ok := result.Output.Number()
	require.True(t, ok)
	assert.Equal(t, 5.0, n)
}

func TestLocalCodeRunnerReportsTimeout(t *testing.T) {
	requireInterpreter(t, "python3")
	t.Parallel()

	runner := NewLocalCodeRunner("python3")
	result, err := runner.RunCode(context.Background(), "python", "while True:\n    pass", nil, 200, nil)
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
}

func TestLocalCodeRunnerRejectsUnsupportedLanguage(t *testing.T) {
	t.Parallel()
	runner := NewLocalCodeRunner("python3")
	_, err := runner.RunCode(context.Background(), "ruby", "output = 1", nil, 0, nil)
	require.Error(t, err)
}

func TestLocalCodeRunnerExecutesJSBody(t *testing.T) {
	requireInterpreter(t, "node")
	t.Parallel()

	runner := NewLocalCodeRunner("node")
	result, err := runner.RunCode(context.Background(), "js", "output = inputs.x + 1;", map[string]model.Value{
		"x": model.NewNumber(10),
	}, 5000, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	n, ok := result.Output.Number()
	require.True(t, ok)
	assert.Equal(t, 11.0, n)
}
