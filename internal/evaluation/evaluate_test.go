package evaluation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/topfang/internal/evaluation"
	"github.com/Sumatoshi-tech/topfang/internal/streamio"
	"github.com/Sumatoshi-tech/topfang/pkg/topn"
)

// skewedDataset is two identical windows where a dominates both partitions.
func skewedDataset() *streamio.Dataset {
	window := streamio.WindowRecord{
		Partitions: []streamio.PartitionRecord{
			{ID: 0, Items: []string{"a", "a", "a", "a", "b"}},
			{ID: 1, Items: []string{"a", "a", "a", "b", "c"}},
		},
	}

	counts := map[string]int64{"a": 7, "b": 2, "c": 1}

	ds := &streamio.Dataset{}

	for w := range 2 {
		rec := window
		rec.Window = w
		ds.Windows = append(ds.Windows, rec)
		ds.Summaries = append(ds.Summaries, streamio.SummaryRecord{
			Distribution: "zipfian",
			Counts:       counts,
			NHint:        2,
		})
	}

	return ds
}

func TestEvaluate_ScoresWindows(t *testing.T) {
	t.Parallel()

	runner, err := topn.NewStaticRunner[string](2, 2)
	require.NoError(t, err)

	reports := evaluation.Evaluate(context.Background(), runner, skewedDataset(), evaluation.Options{N: 2})
	require.Len(t, reports, 2)

	for _, r := range reports {
		require.NoError(t, r.Err)
		assert.False(t, r.Skipped)
		require.NotNil(t, r.Result)

		// a holds 7 of 10 and is the only item above the 1/2 line on both
		// sides, so the estimate matches the truth exactly.
		require.Len(t, r.EstimatedTopN, 1)
		assert.Equal(t, "a", r.EstimatedTopN[0].Item)
		require.Len(t, r.ActualTopN, 1)
		assert.Equal(t, "a", r.ActualTopN[0].Item)

		assert.InDelta(t, 1, r.Metrics.Precision, tolerance)
		assert.InDelta(t, 1, r.Metrics.Recall, tolerance)
		assert.InDelta(t, 1, r.Metrics.F1, tolerance)
	}
}

func TestEvaluate_AdaptiveRunnerAdjustsCapacity(t *testing.T) {
	t.Parallel()

	runner, err := topn.NewAdaptiveRunner[string](2, topn.ControllerConfig{N: 2, Alpha: 0.5})
	require.NoError(t, err)

	reports := evaluation.Evaluate(context.Background(), runner, skewedDataset(), evaluation.Options{N: 2})
	require.Len(t, reports, 2)

	for _, r := range reports {
		require.NoError(t, r.Err)
		assert.GreaterOrEqual(t, r.Result.NextQ, 2)
	}
}

func TestEvaluate_EntropyThresholdSkips(t *testing.T) {
	t.Parallel()

	// A uniform actual distribution has normalised entropy 1, above any
	// threshold below 1.
	ds := &streamio.Dataset{
		Windows: []streamio.WindowRecord{{
			Window: 0,
			Partitions: []streamio.PartitionRecord{
				{ID: 0, Items: []string{"a", "b", "c", "d"}},
			},
		}},
		Summaries: []streamio.SummaryRecord{{
			Distribution: "uniform",
			Counts:       map[string]int64{"a": 1, "b": 1, "c": 1, "d": 1},
			NHint:        2,
		}},
	}

	runner, err := topn.NewStaticRunner[string](1, 2)
	require.NoError(t, err)

	reports := evaluation.Evaluate(context.Background(), runner, ds, evaluation.Options{
		N:                2,
		EntropyThreshold: 0.9,
	})

	require.Len(t, reports, 1)
	assert.True(t, reports[0].Skipped)
	assert.NoError(t, reports[0].Err)
	assert.InDelta(t, 1, reports[0].Entropy, tolerance)
	assert.Zero(t, reports[0].Metrics)
}

func TestEvaluate_FailedWindowDoesNotStopStream(t *testing.T) {
	t.Parallel()

	ds := skewedDataset()

	// First window routes to a partition the runner does not have.
	ds.Windows[0].Partitions = append(ds.Windows[0].Partitions, streamio.PartitionRecord{
		ID:    9,
		Items: []string{"z"},
	})

	runner, err := topn.NewStaticRunner[string](2, 2)
	require.NoError(t, err)

	reports := evaluation.Evaluate(context.Background(), runner, ds, evaluation.Options{N: 2})
	require.Len(t, reports, 2)

	assert.ErrorIs(t, reports[0].Err, topn.ErrUnknownPartition)
	assert.NoError(t, reports[1].Err)
	require.NotNil(t, reports[1].Result)
}
