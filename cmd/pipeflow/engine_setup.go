package main

import (
	"fmt"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/engine"
	"github.com/arota-dev/pipeflow/internal/logger"
	"github.com/arota-dev/pipeflow/internal/ports"
	"github.com/arota-dev/pipeflow/internal/runtime"
	"github.com/arota-dev/pipeflow/internal/scheduler"
)

// buildScheduler wires a runtime.Registry (local subprocess code runners,
// plus an HTTP agent invoker when agentURL is non-empty, plus a JSON output
// parser when parseJSON is set) into a scheduler.Scheduler ready to execute
// pipeline against samples.
func buildScheduler(pipeline *config.PipelineSpec, agentURL, agentKey string, parseJSON bool, sink ports.ProgressSink, log *logger.Logger) (*scheduler.Scheduler, error) {
	registry := runtime.NewDefaultRegistry()
	if agentURL != "" {
		registry.SetAgent(runtime.NewHTTPAgentInvoker(agentURL, agentKey))
	} else if hasAgentFlowStep(pipeline) {
		return nil, fmt.Errorf("pipeline %q has agent_flow steps but no --agent-url was given", pipeline.Name)
	}
	if parseJSON {
		registry.SetParser(runtime.NewJSONOutputParser())
	}

	collab := engine.Collaborators{
		Agent:  registry.Agent(),
		Code:   registry.CodeRunner(),
		Parser: registry.Parser(),
	}

	return scheduler.NewScheduler(collab, pipeline.Settings, sink, log), nil
}

func hasAgentFlowStep(pipeline *config.PipelineSpec) bool {
	for _, step := range pipeline.Steps {
		if step.Kind == config.KindAgentFlow {
			return true
		}
	}
	return false
}

// logProgressSink reports engine progress through the structured logger,
// the non-interactive run's stand-in for the dashboard's live view.
type logProgressSink struct {
	log *logger.Logger
}

func (s logProgressSink) OnProgress(sampleID string, snapshot ports.ProgressSnapshot) {
	if s.log == nil {
		return
	}
	s.log.WithFields(map[string]any{
		"sample":    sampleID,
		"completed": snapshot.Completed,
		"failed":    snapshot.Failed,
		"skipped":   snapshot.Skipped,
		"running":   snapshot.Running,
		"pending":   snapshot.Pending,
		"total":     snapshot.Total,
	}).Info("step progress")
}
