package model

import "time"

// Status values a StepResult can carry. Kept as string constants in the
// teacher's style rather than a typed enum so they serialize verbatim.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// TokenCounts accumulates LLM token usage for an AgentFlow step (or the sum
// across a batch). Non-AgentFlow steps report the zero value.
type TokenCounts struct {
	In    int
	Out   int
	Total int
}

// Add returns the element-wise sum of c and other.
func (c TokenCounts) Add(other TokenCounts) TokenCounts {
	return TokenCounts{In: c.In + other.In, Out: c.Out + other.Out, Total: c.Total + other.Total}
}

// ParserStats summarizes the output parser's behavior across one or more
// AgentFlow invocations.
type ParserStats struct {
	SuccessCount    int
	FailureCount    int
	TotalRetryCount int
	SuccessRate     float64
	AverageRetries  float64
}

// Add returns the merged stats of s and other, recomputing the derived
// success rate and average retry count over the combined counts.
func (s ParserStats) Add(other ParserStats) ParserStats {
	merged := ParserStats{
		SuccessCount:    s.SuccessCount + other.SuccessCount,
		FailureCount:    s.FailureCount + other.FailureCount,
		TotalRetryCount: s.TotalRetryCount + other.TotalRetryCount,
	}
	total := merged.SuccessCount + merged.FailureCount
	if total > 0 {
		merged.SuccessRate = float64(merged.SuccessCount) / float64(total)
		merged.AverageRetries = float64(merged.TotalRetryCount) / float64(total)
	}
	return merged
}

// StepResult captures the outcome of executing a single step for one sample.
type StepResult struct {
	StepID        string
	OutputKey     string
	OutputValue   Value
	Success       bool
	Skipped       bool
	ErrorMessage  string
	ErrorKind     string
	ExecutionTime time.Duration
	TokenCounts   TokenCounts
	ParserStats   *ParserStats
}

// Failed constructs a StepResult for a step whose body raised.
func Failed(stepID, outputKey, kind, message string, elapsed time.Duration) StepResult {
	return StepResult{
		StepID:        stepID,
		OutputKey:     outputKey,
		Success:       false,
		ErrorKind:     kind,
		ErrorMessage:  message,
		ExecutionTime: elapsed,
	}
}

// SkippedResult constructs a StepResult for a step skipped due to a failed
// required dependency (or, for steps that never ran at all after a sample
// aborts, "not reached").
func SkippedResult(stepID, outputKey, kind, message string) StepResult {
	return StepResult{
		StepID:       stepID,
		OutputKey:    outputKey,
		Success:      false,
		Skipped:      true,
		ErrorKind:    kind,
		ErrorMessage: message,
	}
}

// Succeeded constructs a successful StepResult.
func Succeeded(stepID, outputKey string, value Value, elapsed time.Duration, tokens TokenCounts, parser *ParserStats) StepResult {
	return StepResult{
		StepID:        stepID,
		OutputKey:     outputKey,
		OutputValue:   value,
		Success:       true,
		ExecutionTime: elapsed,
		TokenCounts:   tokens,
		ParserStats:   parser,
	}
}
