package evaluation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/topfang/internal/observability"
	"github.com/Sumatoshi-tech/topfang/internal/streamio"
	"github.com/Sumatoshi-tech/topfang/pkg/topn"
)

// Options configures an evaluation run.
type Options struct {
	// N is the heavy-hitter target; the line is 1/N.
	N int

	// EntropyThreshold skips scoring for windows whose actual distribution
	// has normalised entropy above it. Zero disables the filter.
	EntropyThreshold float64

	// Parallel inserts each partition on its own goroutine.
	Parallel bool

	// Logger receives per-window progress. Nil discards.
	Logger *slog.Logger

	// Metrics receives per-window OTel measurements. Nil disables.
	Metrics *observability.WindowMetrics
}

// WindowReport is the evaluation outcome of one window. A failed window
// carries Err and empty scores; a skipped window carries the entropy that
// tripped the filter.
type WindowReport struct {
	Window  int
	Skipped bool
	Err     error

	Result        *topn.WindowResult[string]
	ActualTopN    []RankedItem
	EstimatedTopN []RankedItem
	Entropy       float64
	Metrics       TopNMetrics
	Duration      time.Duration
}

// Evaluate drives the runner over every window of the dataset and scores the
// published estimates against the stored ground truth. Failed windows are
// reported and the stream continues.
func Evaluate(ctx context.Context, runner topn.MethodRunner[string], ds *streamio.Dataset, opts Options) []WindowReport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reports := make([]WindowReport, 0, len(ds.Windows))

	for i, rec := range ds.Windows {
		report := evaluateWindow(runner, rec, summaryAt(ds, i), opts)
		reports = append(reports, report)

		recordWindow(ctx, opts.Metrics, rec, report)

		switch {
		case report.Err != nil:
			logger.Error("window failed", "window", report.Window, "err", report.Err)
		case report.Skipped:
			logger.Info("window skipped",
				"window", report.Window,
				"entropy", report.Entropy,
			)
		default:
			logger.Info("window evaluated",
				"window", report.Window,
				"q", report.Result.Q,
				"next_q", report.Result.NextQ,
				"estimated", len(report.EstimatedTopN),
				"f1", report.Metrics.F1,
				"duration", report.Duration,
			)
		}
	}

	return reports
}

func evaluateWindow(
	runner topn.MethodRunner[string],
	rec streamio.WindowRecord,
	summary *streamio.SummaryRecord,
	opts Options,
) WindowReport {
	report := WindowReport{Window: rec.Window}

	window := topn.Window[string]{ID: rec.Window, Partitions: rec.ToWindow()}

	start := time.Now()
	result, err := topn.RunWindow(runner, window, opts.Parallel)
	report.Duration = time.Since(start)

	if err != nil {
		report.Err = err

		return report
	}

	report.Result = result
	report.EstimatedTopN = estimatedTopN(result)

	if summary != nil {
		var entropy float64
		report.ActualTopN, entropy = actualTopN(summary.Counts, opts.N)
		report.Entropy = entropy

		if opts.EntropyThreshold > 0 && entropy > opts.EntropyThreshold {
			report.Skipped = true

			return report
		}

		report.Metrics = ComputeTopNMetrics(report.ActualTopN, report.EstimatedTopN)
	}

	return report
}

func estimatedTopN(result *topn.WindowResult[string]) []RankedItem {
	items := make([]RankedItem, 0, len(result.Estimates))
	for _, e := range result.Estimates {
		items = append(items, RankedItem{Item: e.Item, Count: e.Count, Freq: e.Freq})
	}

	return items
}

// actualTopN derives the ground-truth heavy hitters (frequency above 1/n,
// descending, at most n) and the normalised entropy of the full actual
// distribution.
func actualTopN(counts map[string]int64, n int) ([]RankedItem, float64) {
	var total int64
	for _, c := range counts {
		total += c
	}

	if total == 0 {
		return nil, 0
	}

	freqs := make(map[string]float64, len(counts))

	items := make([]RankedItem, 0, len(counts))
	line := 1 / float64(n)

	for k, c := range counts {
		f := float64(c) / float64(total)
		freqs[k] = f

		if f > line {
			items = append(items, RankedItem{Item: k, Count: c, Freq: f})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}

		return items[i].Item < items[j].Item
	})

	if len(items) > n {
		items = items[:n]
	}

	return items, normalisedEntropy(freqs)
}

func summaryAt(ds *streamio.Dataset, i int) *streamio.SummaryRecord {
	if i >= len(ds.Summaries) {
		return nil
	}

	return &ds.Summaries[i]
}

func recordWindow(ctx context.Context, wm *observability.WindowMetrics, rec streamio.WindowRecord, report WindowReport) {
	if wm == nil {
		return
	}

	var items int64
	for _, p := range rec.Partitions {
		items += int64(len(p.Items))
	}

	status := observability.StatusOK
	capacity := 0

	var spatial, temporal float64

	switch {
	case report.Err != nil:
		status = observability.StatusError
	case report.Skipped:
		status = observability.StatusSkipped
	}

	if report.Result != nil {
		capacity = report.Result.Q
		spatial = report.Result.SpatialDivergence
		temporal = report.Result.TemporalDivergence
	}

	wm.RecordWindow(ctx, status, items, capacity, spatial, temporal, report.Duration)
}
