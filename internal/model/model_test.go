package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValueRoundTripsThroughJSON(t *testing.T) {
	t.Parallel()

	v := NewMap(map[string]Value{
		"name":  NewString("alice"),
		"score": NewNumber(9.5),
		"ok":    NewBool(true),
		"tags":  NewList([]Value{NewString("a"), NewString("b")}),
		"none":  Null(),
	})

	data, err := v.MarshalJSON()
	require.NoError(t, err)

	var got Value
	require.NoError(t, got.UnmarshalJSON(data))

	fields, ok := got.Map()
	require.True(t, ok)
	require.Equal(t, "alice", fields["name"].AsString())
	n, ok := fields["score"].Number()
	require.True(t, ok)
	require.InDelta(t, 9.5, n, 0.0001)
}

func TestValueAsStringDegradesEachKind(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Null().AsString())
	require.Equal(t, "hi", NewString("hi").AsString())
	require.Equal(t, "true", NewBool(true).AsString())
	require.Equal(t, "3", NewNumber(3).AsString())
	require.Contains(t, NewList([]Value{NewString("x")}).AsString(), "x")
}

func TestFromAnyWrapsNestedNativeValues(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"items": []any{1.0, "two", true, nil},
	}
	v := FromAny(raw)
	fields, ok := v.Map()
	require.True(t, ok)
	items, ok := fields["items"].List()
	require.True(t, ok)
	require.Len(t, items, 4)
	require.Equal(t, KindNumber, items[0].Kind())
	require.Equal(t, KindString, items[1].Kind())
	require.Equal(t, KindBool, items[2].Kind())
	require.Equal(t, KindNull, items[3].Kind())
}

func TestTokenCountsAdd(t *testing.T) {
	t.Parallel()

	a := TokenCounts{In: 10, Out: 5, Total: 15}
	b := TokenCounts{In: 2, Out: 3, Total: 5}
	require.Equal(t, TokenCounts{In: 12, Out: 8, Total: 20}, a.Add(b))
}

func TestParserStatsAddRecomputesRates(t *testing.T) {
	t.Parallel()

	a := ParserStats{SuccessCount: 3, FailureCount: 1, TotalRetryCount: 2}
	b := ParserStats{SuccessCount: 1, FailureCount: 0, TotalRetryCount: 1}

	merged := a.Add(b)
	require.Equal(t, 4, merged.SuccessCount)
	require.Equal(t, 1, merged.FailureCount)
	require.InDelta(t, 0.8, merged.SuccessRate, 0.0001)
	require.InDelta(t, 0.6, merged.AverageRetries, 0.0001)
}

func TestSampleResultSuccessfulReflectsErrorMessage(t *testing.T) {
	t.Parallel()

	ok := SampleResult{}
	require.True(t, ok.Successful())

	failed := SampleResult{ErrorMessage: "required step 'a' failed: boom"}
	require.False(t, failed.Successful())
}

func TestSampleResultFailedAndSkippedSteps(t *testing.T) {
	t.Parallel()

	r := SampleResult{
		StepResults: []StepResult{
			Succeeded("a", "x", NewString("ok"), time.Millisecond, TokenCounts{}, nil),
			Failed("b", "y", "ValueError", "boom", time.Millisecond),
			SkippedResult("c", "z", "DependencyFailure", "required dependency failed"),
		},
	}

	require.Len(t, r.FailedSteps(), 1)
	require.Equal(t, "b", r.FailedSteps()[0].StepID)
	require.Len(t, r.SkippedSteps(), 1)
	require.Equal(t, "c", r.SkippedSteps()[0].StepID)
}

func TestSampleResultEvaluationOutputFallsBackToLastSuccess(t *testing.T) {
	t.Parallel()

	r := SampleResult{
		StepResults: []StepResult{
			Succeeded("a", "x", NewString("first"), time.Millisecond, TokenCounts{}, nil),
			Succeeded("b", "y", NewString("second"), time.Millisecond, TokenCounts{}, nil),
		},
	}

	v, ok := r.EvaluationOutput("")
	require.True(t, ok)
	require.Equal(t, "second", v.AsString())

	v, ok = r.EvaluationOutput("a")
	require.True(t, ok)
	require.Equal(t, "first", v.AsString())

	_, ok = r.EvaluationOutput("missing")
	require.False(t, ok)
}
