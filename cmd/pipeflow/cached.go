package main

import (
	"github.com/arota-dev/pipeflow/internal/checkpoint"
	"github.com/arota-dev/pipeflow/internal/tui/dashboard"
)

// loadCachedStatuses seeds a dashboard run with the prior checkpoint's
// outcomes for pipelineID/variant, if one exists, so reopening the
// dashboard after a crash or a prior run shows what already succeeded.
func loadCachedStatuses(store *checkpoint.Store, pipelineID, variant string) map[string]dashboard.CachedSampleStatus {
	cp, ok, err := store.LatestAny(pipelineID, variant)
	if err != nil || !ok {
		return nil
	}

	out := make(map[string]dashboard.CachedSampleStatus, len(cp.CompletedResults))
	for _, result := range cp.CompletedResults {
		result := result
		status := dashboard.StatusSuccess
		if !result.Successful() {
			status = dashboard.StatusFailed
		}
		out[result.SampleID] = dashboard.CachedSampleStatus{Status: status, Result: &result}
	}
	return out
}
