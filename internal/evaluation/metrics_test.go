package evaluation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/topfang/internal/evaluation"
)

const tolerance = 1e-9

func TestPrecisionRecallF1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		actual        map[string]float64
		estimated     map[string]float64
		wantPrecision float64
		wantRecall    float64
		wantF1        float64
	}{
		{
			name:          "perfect_match",
			actual:        map[string]float64{"a": 0.5, "b": 0.3},
			estimated:     map[string]float64{"a": 0.5, "b": 0.3},
			wantPrecision: 1, wantRecall: 1, wantF1: 1,
		},
		{
			name:          "half_right",
			actual:        map[string]float64{"a": 0.5, "b": 0.3},
			estimated:     map[string]float64{"a": 0.5, "c": 0.2},
			wantPrecision: 0.5, wantRecall: 0.5, wantF1: 0.5,
		},
		{
			name:          "no_overlap",
			actual:        map[string]float64{"a": 0.5},
			estimated:     map[string]float64{"x": 0.5},
			wantPrecision: 0, wantRecall: 0, wantF1: 0,
		},
		{
			name:          "both_empty",
			actual:        map[string]float64{},
			estimated:     map[string]float64{},
			wantPrecision: 0, wantRecall: 0, wantF1: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			precision, recall, f1 := evaluation.PrecisionRecallF1(tt.actual, tt.estimated)
			assert.InDelta(t, tt.wantPrecision, precision, tolerance)
			assert.InDelta(t, tt.wantRecall, recall, tolerance)
			assert.InDelta(t, tt.wantF1, f1, tolerance)
		})
	}
}

func TestErrorMetrics(t *testing.T) {
	t.Parallel()

	actual := map[string]float64{"a": 0.5, "b": 0.25}
	estimated := map[string]float64{"a": 0.4, "b": 0.35}

	assert.InDelta(t, 0.1, evaluation.AvgAbsoluteError(actual, estimated), tolerance)
	assert.InDelta(t, (0.1/0.5+0.1/0.25)/2, evaluation.AvgRelativeError(actual, estimated), tolerance)
	assert.InDelta(t, 0.1, evaluation.RMSE(actual, estimated), tolerance)
}

func TestErrorMetrics_MissingEstimates(t *testing.T) {
	t.Parallel()

	actual := map[string]float64{"a": 0.5, "b": 0.5}
	estimated := map[string]float64{"a": 0.5}

	// Absolute error counts b as estimated 0; relative and RMSE only score
	// shared keys.
	assert.InDelta(t, 0.25, evaluation.AvgAbsoluteError(actual, estimated), tolerance)
	assert.InDelta(t, 0, evaluation.AvgRelativeError(actual, estimated), tolerance)
	assert.InDelta(t, 0, evaluation.RMSE(actual, estimated), tolerance)
}

func TestErrorMetrics_Empty(t *testing.T) {
	t.Parallel()

	assert.Zero(t, evaluation.AvgAbsoluteError(nil, nil))
	assert.Zero(t, evaluation.AvgRelativeError(nil, nil))
	assert.Zero(t, evaluation.RMSE(nil, nil))
}

func TestComputeTopNMetrics(t *testing.T) {
	t.Parallel()

	actual := []evaluation.RankedItem{
		{Item: "a", Count: 50, Freq: 0.5},
		{Item: "b", Count: 30, Freq: 0.3},
	}
	estimated := []evaluation.RankedItem{
		{Item: "a", Count: 52, Freq: 0.52},
		{Item: "b", Count: 28, Freq: 0.28},
	}

	m := evaluation.ComputeTopNMetrics(actual, estimated)

	assert.InDelta(t, 1, m.Precision, tolerance)
	assert.InDelta(t, 1, m.Recall, tolerance)
	assert.InDelta(t, 1, m.F1, tolerance)
	assert.InDelta(t, 0.02, m.AvgAbsoluteError, tolerance)
	assert.InDelta(t, 0.02, m.RMSE, tolerance)
}
