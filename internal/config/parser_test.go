package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePipeline = `
version: "1.0.0"
name: demo-pipeline
steps:
  - id: draft
    kind: agent_flow
    output_key: draft_text
    agent: writer
    flow: draft_flow
  - id: polish
    kind: agent_flow
    output_key: final_text
    depends_on: [draft]
    input_mapping:
      text: draft_text
    agent: editor
    flow: polish_flow
`

func TestParseConfigBytesLoadsValidPipeline(t *testing.T) {
	t.Parallel()

	spec, err := ParseConfigBytes("inline.yaml", []byte(samplePipeline))
	require.NoError(t, err)
	require.Equal(t, "demo-pipeline", spec.Name)
	require.Len(t, spec.Steps, 2)
}

func TestParseConfigReadsFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePipeline), 0o644))

	spec, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, "demo-pipeline", spec.Name)
}

func TestParseConfigRejectsMalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := ParseConfigBytes("bad.yaml", []byte("steps: [\n"))
	require.Error(t, err)
}

func TestParseConfigRejectsInvalidPipeline(t *testing.T) {
	t.Parallel()

	_, err := ParseConfigBytes("invalid.yaml", []byte("version: \"1.0.0\"\nname: x\nsteps: []\n"))
	require.Error(t, err)
}
