package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/arota-dev/pipeflow/internal/config"
	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
)

// Registry is the construction-time wiring point between the engine's
// consumed interfaces and their concrete implementations: one CodeRunner per
// supported language, plus the agent invoker used by every AgentFlow step.
// A pipeline run builds one Registry up front and threads it through every
// sample's engine.Collaborators.
type Registry struct {
	mu          sync.RWMutex
	codeRunners map[string]ports.CodeRunner
	agent       ports.AgentInvoker
	parser      ports.OutputParser
}

// NewRegistry returns an empty registry. Use RegisterCodeRunner/SetAgent/
// SetParser to populate it, or NewDefaultRegistry for the CLI's defaults.
func NewRegistry() *Registry {
	return &Registry{codeRunners: make(map[string]ports.CodeRunner)}
}

// RegisterCodeRunner binds a CodeRunner to a language name
// (config.LanguagePython, config.LanguageJS, ...).
func (r *Registry) RegisterCodeRunner(language string, runner ports.CodeRunner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codeRunners[language] = runner
}

// SetAgent binds the single AgentInvoker used by every AgentFlow step.
func (r *Registry) SetAgent(agent ports.AgentInvoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agent = agent
}

// SetParser binds the OutputParser used when an AgentFlow step's output
// requires structured parsing beyond raw text.
func (r *Registry) SetParser(parser ports.OutputParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parser = parser
}

// Agent returns the registered AgentInvoker, or nil if none was set.
func (r *Registry) Agent() ports.AgentInvoker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agent
}

// Parser returns the registered OutputParser, or nil if none was set.
func (r *Registry) Parser() ports.OutputParser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parser
}

// CodeRunner returns a ports.CodeRunner that dispatches to the
// language-specific runner registered for whatever language a given call
// names, satisfying the single ports.CodeRunner slot engine.Collaborators
// expects regardless of how many languages are actually registered.
func (r *Registry) CodeRunner() ports.CodeRunner {
	return dispatchingCodeRunner{r}
}

type dispatchingCodeRunner struct{ r *Registry }

func (d dispatchingCodeRunner) RunCode(ctx context.Context, language, body string, inputs map[string]model.Value, timeoutMs int, env map[string]string) (ports.CodeResult, error) {
	d.r.mu.RLock()
	runner, ok := d.r.codeRunners[language]
	d.r.mu.RUnlock()
	if !ok {
		return ports.CodeResult{}, fmt.Errorf("no code runner registered for language %q", language)
	}
	return runner.RunCode(ctx, language, body, inputs, timeoutMs, env)
}

// NewDefaultRegistry wires the CLI's default implementations: a local
// subprocess-based runner for python and js, and no agent invoker or output
// parser (the CLI calls SetAgent/SetParser itself once it knows which agent
// backend to talk to and whether agent-flow output needs structured
// parsing).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterCodeRunner(config.LanguagePython, NewLocalCodeRunner("python3"))
	r.RegisterCodeRunner(config.LanguageJS, NewLocalCodeRunner("node"))
	return r
}
