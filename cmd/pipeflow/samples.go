package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/scheduler"
)

// loadSamples reads a YAML document holding a top-level list of field maps
// and converts each entry into a scheduler.Sample. An "id" field, if
// present, becomes the sample's ID; otherwise one is synthesized from the
// entry's position so every sample still hashes and sorts deterministically.
func loadSamples(path string) ([]scheduler.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading samples file: %w", err)
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing samples file %s: %w", path, err)
	}

	samples := make([]scheduler.Sample, len(raw))
	for i, entry := range raw {
		id := fmt.Sprintf("sample-%d", i+1)
		if v, ok := entry["id"].(string); ok && v != "" {
			id = v
		}

		fields := make(map[string]model.Value, len(entry))
		for k, v := range entry {
			fields[k] = model.FromAny(v)
		}

		samples[i] = scheduler.Sample{ID: id, Fields: fields}
	}

	return samples, nil
}
