package model

import "time"

// SampleResult is the engine's per-sample return value: an ordered list of
// StepResults (declaration order, regardless of completion order), the
// projected final outputs, and aggregated totals.
type SampleResult struct {
	SampleID     string
	Variant      string
	StepResults  []StepResult
	FinalOutputs map[string]Value
	TotalTime    time.Duration
	TokenCounts  TokenCounts
	ParserStats  *ParserStats
	ErrorMessage string
}

// Successful reports whether the sample finished without a required-step
// failure, i.e. ErrorMessage is empty. Optional steps may still have failed
// or been skipped.
func (r SampleResult) Successful() bool {
	return r.ErrorMessage == ""
}

// FailedSteps returns the StepResults with Success=false and Skipped=false.
func (r SampleResult) FailedSteps() []StepResult {
	var out []StepResult
	for _, sr := range r.StepResults {
		if !sr.Success && !sr.Skipped {
			out = append(out, sr)
		}
	}
	return out
}

// SkippedSteps returns the StepResults with Skipped=true.
func (r SampleResult) SkippedSteps() []StepResult {
	var out []StepResult
	for _, sr := range r.StepResults {
		if sr.Skipped {
			out = append(out, sr)
		}
	}
	return out
}

// StepByID returns the StepResult for id and whether it was found.
func (r SampleResult) StepByID(id string) (StepResult, bool) {
	for _, sr := range r.StepResults {
		if sr.StepID == id {
			return sr, true
		}
	}
	return StepResult{}, false
}

// EvaluationOutput returns the output of the named evaluation target step,
// falling back to the last successful step's output when target is empty.
// Carried from the original pipeline runner's get_evaluation_target_output;
// it is a pure read consumed by the out-of-scope judge/evaluator.
func (r SampleResult) EvaluationOutput(target string) (Value, bool) {
	if target != "" {
		if sr, ok := r.StepByID(target); ok && sr.Success {
			return sr.OutputValue, true
		}
		return Value{}, false
	}
	for i := len(r.StepResults) - 1; i >= 0; i-- {
		if r.StepResults[i].Success {
			return r.StepResults[i].OutputValue, true
		}
	}
	return Value{}, false
}

// PerformanceSummary projects timing and token totals for reporting. When
// detailed is true, per-step execution times are included.
func (r SampleResult) PerformanceSummary(detailed bool) map[string]Value {
	summary := map[string]Value{
		"total_time_ms": NewNumber(float64(r.TotalTime.Milliseconds())),
		"token_total":   NewNumber(float64(r.TokenCounts.Total)),
		"step_count":    NewNumber(float64(len(r.StepResults))),
	}
	if !detailed {
		return summary
	}
	perStep := make(map[string]Value, len(r.StepResults))
	for _, sr := range r.StepResults {
		perStep[sr.StepID] = NewNumber(float64(sr.ExecutionTime.Milliseconds()))
	}
	summary["step_times_ms"] = NewMap(perStep)
	return summary
}
