package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPipelineYAML = `
version: "1.0.0"
name: demo
steps:
  - id: a
    kind: code_node
    output_key: out_a
    language: python
    code: "result = 1"
`

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRunValidateAcceptsWellFormedPipeline(t *testing.T) {
	originalExit := exitFunc
	called := false
	exitFunc = func(code int) { called = true }
	t.Cleanup(func() { exitFunc = originalExit })

	path := writeConfigFile(t, validPipelineYAML)
	require.NoError(t, runValidate(path))
	assert.False(t, called)
}

func TestRunValidateRejectsMalformedPipeline(t *testing.T) {
	originalExit := exitFunc
	originalStderr := stderrWriter
	var exitCode int
	buf := &bytes.Buffer{}
	exitFunc = func(code int) { exitCode = code }
	stderrWriter = buf
	t.Cleanup(func() {
		exitFunc = originalExit
		stderrWriter = originalStderr
	})

	path := writeConfigFile(t, "version: \"1.0.0\"\nname: demo\nsteps: []\n")
	require.NoError(t, runValidate(path))
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, buf.String(), "invalid pipeline")
}
