package ports

import (
	"context"

	"github.com/arota-dev/pipeflow/internal/model"
)

// AgentInvoker is the consumed interface for LLM agent/flow invocation. The
// engine never talks to an agent runtime directly: it resolves a step's
// effective flow name and model override (layering variant override, then
// baseline override, then the step's own field) and calls RunFlow.
// Implementations are free to be network-bound; the engine places no
// idempotence requirement on them and treats every call as a fresh attempt.
type AgentInvoker interface {
	// RunFlow invokes agentID with flowName and the resolved input vars,
	// optionally overriding the model. It returns the agent's raw text
	// output, token accounting, and parser stats if the agent's output
	// passed through a retrying parser upstream.
	RunFlow(ctx context.Context, flowName string, vars map[string]model.Value, agentID string, modelOverride string) (text string, tokens model.TokenCounts, parserStats *model.ParserStats, err error)
}

// CodeRunner is the consumed interface for sandboxed code execution. The
// engine passes no secrets into env beyond what the step config explicitly
// sets; implementations must be sandboxed or at minimum stateless per call,
// since the engine may invoke the same runner concurrently for a batch.
type CodeRunner interface {
	// RunCode executes body (or a path to it) in language, with inputs bound
	// as the script's locals/globals, subject to timeout. A timed-out call
	// must return CodeResult.TimedOut=true rather than blocking past
	// timeout.
	RunCode(ctx context.Context, language string, body string, inputs map[string]model.Value, timeout int, env map[string]string) (CodeResult, error)
}

// CodeResult is the outcome of one CodeRunner.RunCode call.
type CodeResult struct {
	Output     model.Value
	Success    bool
	Error      string
	Stderr     string
	Stacktrace string
	TimedOut   bool
}

// OutputParser extracts a structured Value from an agent's raw text output,
// retrying according to its own internal policy. ParserStats, when
// non-nil, is folded into the owning StepResult/SampleResult totals.
type OutputParser interface {
	Parse(ctx context.Context, raw string) (model.Value, *model.ParserStats, error)
}
