package config

import (
	"fmt"
	"os"
	"regexp"

	pipeflowerrors "github.com/arota-dev/pipeflow/pkg/errors"
	"gopkg.in/yaml.v3"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a pipeline YAML document from disk, validates it, and
// returns the resulting spec.
func ParseConfig(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipeflowerrors.NewParseError(path, 0, err)
	}
	return ParseConfigBytes(path, data)
}

// ParseConfigBytes is ParseConfig with the document already in memory; tests
// and embedded pipelines use this to avoid a filesystem round-trip.
func ParseConfigBytes(path string, data []byte) (*PipelineSpec, error) {
	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, pipeflowerrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidateConfig(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}

	return line
}
