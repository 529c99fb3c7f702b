package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/arota-dev/pipeflow/internal/model"
	"github.com/arota-dev/pipeflow/internal/ports"
)

// JSONOutputParser extracts a JSON value from an agent's raw text output.
// Real agent/flow frameworks often wrap JSON in prose or a markdown code
// fence, so Parse tries a small, fixed sequence of extraction strategies
// before giving up, counting every strategy past the first as a retry.
// It is a stand-in default the way LocalCodeRunner is: a production
// deployment registers whatever parser its own agent framework provides in
// its place via Registry.SetParser.
type JSONOutputParser struct {
	mu      sync.Mutex
	success int
	failure int
	retries int
}

// NewJSONOutputParser returns a JSONOutputParser with a zeroed stats
// counter.
func NewJSONOutputParser() *JSONOutputParser {
	return &JSONOutputParser{}
}

// Parse implements ports.OutputParser.
func (p *JSONOutputParser) Parse(_ context.Context, raw string) (model.Value, *model.ParserStats, error) {
	candidates := []string{
		strings.TrimSpace(raw),
		stripCodeFence(raw),
		innermostJSON(raw),
	}

	var lastErr error
	for attempt, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
			lastErr = err
			continue
		}
		return p.record(true, attempt, model.FromAny(decoded)), p.snapshot(), nil
	}

	p.record(false, len(candidates)-1, model.Value{})
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON content found in agent output")
	}
	return model.Value{}, p.snapshot(), fmt.Errorf("parsing agent output as JSON: %w", lastErr)
}

func (p *JSONOutputParser) record(success bool, attempt int, value model.Value) model.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	if success {
		p.success++
	} else {
		p.failure++
	}
	p.retries += attempt
	return value
}

func (p *JSONOutputParser) snapshot() *model.ParserStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := model.ParserStats{
		SuccessCount:    p.success,
		FailureCount:    p.failure,
		TotalRetryCount: p.retries,
	}
	total := stats.SuccessCount + stats.FailureCount
	if total > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(total)
		stats.AverageRetries = float64(stats.TotalRetryCount) / float64(total)
	}
	return &stats
}

// stripCodeFence returns the content of the first ```-delimited fence in
// raw (optionally tagged ```json), or "" if raw has none.
func stripCodeFence(raw string) string {
	start := strings.Index(raw, "```")
	if start == -1 {
		return ""
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 && nl < 10 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// innermostJSON returns the substring from the first '{' or '[' through the
// last occurrence of the corresponding closing '}' or ']' in raw, or "" if
// raw has no such pair. Brackets are not balanced against each other.
func innermostJSON(raw string) string {
	openObj, openArr := strings.IndexByte(raw, '{'), strings.IndexByte(raw, '[')
	open := openObj
	closeCh := byte('}')
	if open == -1 || (openArr != -1 && openArr < open) {
		open = openArr
		closeCh = ']'
	}
	if open == -1 {
		return ""
	}
	closeIdx := strings.LastIndexByte(raw, closeCh)
	if closeIdx == -1 || closeIdx < open {
		return ""
	}
	return strings.TrimSpace(raw[open : closeIdx+1])
}

var _ ports.OutputParser = (*JSONOutputParser)(nil)
