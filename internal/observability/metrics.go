package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricWindowsTotal       = "topfang.windows.total"
	metricItemsTotal         = "topfang.items.total"
	metricSketchCapacity     = "topfang.sketch.capacity"
	metricSpatialDivergence  = "topfang.divergence.spatial"
	metricTemporalDivergence = "topfang.divergence.temporal"
	metricWindowDuration     = "topfang.window.duration.seconds"

	attrStatus = "status"
)

// Window outcomes recorded on the windows counter.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// windowDurationBoundaries covers 1ms to 60s; windows are in-process and
// usually complete well under a second.
var windowDurationBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// WindowMetrics holds the OTel instruments recorded once per processed
// window.
type WindowMetrics struct {
	windowsTotal       metric.Int64Counter
	itemsTotal         metric.Int64Counter
	sketchCapacity     metric.Int64Gauge
	spatialDivergence  metric.Float64Gauge
	temporalDivergence metric.Float64Gauge
	windowDuration     metric.Float64Histogram
}

// NewWindowMetrics creates window metric instruments from the given meter.
func NewWindowMetrics(mt metric.Meter) (*WindowMetrics, error) {
	b := newMetricBuilder(mt)

	wm := &WindowMetrics{
		windowsTotal:       b.counter(metricWindowsTotal, "Total processed windows by outcome", "{window}"),
		itemsTotal:         b.counter(metricItemsTotal, "Total stream items inserted", "{item}"),
		sketchCapacity:     b.intGauge(metricSketchCapacity, "Per-worker sketch capacity of the current window", "{slot}"),
		spatialDivergence:  b.floatGauge(metricSpatialDivergence, "Max worker-vs-global Jensen-Shannon divergence", "1"),
		temporalDivergence: b.floatGauge(metricTemporalDivergence, "Smoothed window-over-window Jensen-Shannon divergence", "1"),
		windowDuration:     b.histogram(metricWindowDuration, "Window processing duration in seconds", "s", windowDurationBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return wm, nil
}

// RecordWindow records one window outcome with its volume, capacity,
// divergences, and duration.
func (wm *WindowMetrics) RecordWindow(
	ctx context.Context,
	status string,
	items int64,
	capacity int,
	spatial, temporal float64,
	duration time.Duration,
) {
	wm.windowsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
	wm.itemsTotal.Add(ctx, items)
	wm.sketchCapacity.Record(ctx, int64(capacity))
	wm.spatialDivergence.Record(ctx, spatial)
	wm.temporalDivergence.Record(ctx, temporal)
	wm.windowDuration.Record(ctx, duration.Seconds())
}
