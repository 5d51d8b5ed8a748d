// Package topn implements windowed top-n heavy-hitter estimation over
// partitioned streams.
//
// Each processing window partitions the input across m workers, every worker
// feeding a bounded Space-Saving sketch of capacity q. At window close the
// worker sketches are merged into a global sketch with confidence telemetry,
// and the adaptive variant resizes q for the next window from the spatial
// and temporal divergence of the observed distribution.
package topn

import (
	"cmp"
	"errors"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
)

var (
	// ErrInvalidTopN is returned when the target top-n size is less than 1.
	ErrInvalidTopN = errors.New("topn: n must be at least 1")

	// ErrInvalidPartitions is returned when the worker count is less than 1.
	ErrInvalidPartitions = errors.New("topn: m must be at least 1")

	// ErrInvalidAlpha is returned when the temporal smoothing factor is
	// outside [0, 1].
	ErrInvalidAlpha = errors.New("topn: alpha must be in [0, 1]")

	// ErrInvalidTuning is returned when the coverage-rule constant r is
	// outside (0, 1].
	ErrInvalidTuning = errors.New("topn: r must be in (0, 1]")

	// ErrInvalidBounds is returned when the capacity clamp is inconsistent
	// with the target top-n size.
	ErrInvalidBounds = errors.New("topn: capacity bounds must satisfy n <= q_min <= q_max")

	// ErrUnknownPartition is returned when an item is routed to a partition
	// id outside [0, m).
	ErrUnknownPartition = errors.New("topn: unknown partition id")

	// ErrWindowNotInitialized is returned when items arrive before
	// InitializeSketches was called for the window.
	ErrWindowNotInitialized = errors.New("topn: window not initialized")
)

// ItemEstimate is one published heavy-hitter estimate.
type ItemEstimate[T cmp.Ordered] struct {
	Item  T
	Count int64
	Freq  float64
}

// WindowResult is the outcome of finalizing one window.
type WindowResult[T cmp.Ordered] struct {
	WindowID int

	// Estimates holds the top-n items of the merged sketch whose estimated
	// global frequency clears the heavy-hitter line 1/n, in descending
	// frequency order.
	Estimates []ItemEstimate[T]

	// Telemetry is the full confidence record of the aggregation.
	Telemetry *spacesaving.Telemetry[T]

	// Q is the per-worker sketch capacity used for this window.
	Q int

	// NextQ is the capacity chosen for the next window. Static runners
	// report NextQ equal to Q.
	NextQ int

	// SpatialDivergence and TemporalDivergence are the controller inputs L
	// and L_t. Both are 0 for static runners.
	SpatialDivergence  float64
	TemporalDivergence float64
}

// MethodRunner is the contract window orchestration drives. A runner owns m
// worker sketches per window; InsertItem routes one item to its partition's
// sketch, and FinalizeWindow aggregates, adapts, and publishes the result.
//
// InsertItem calls for distinct partitions may run concurrently; each
// partition's sketch has a single writer. FinalizeWindow must only be called
// after all inserts for the window have completed.
type MethodRunner[T cmp.Ordered] interface {
	InitializeSketches(windowID int) error
	InsertItem(partitionID int, item T) error
	FinalizeWindow(windowID int) (*WindowResult[T], error)
}

// estimates derives the published heavy hitters from aggregation telemetry:
// the top-n items with PHat above 1/n, in the telemetry's descending order.
func estimates[T cmp.Ordered](tel *spacesaving.Telemetry[T], n int) []ItemEstimate[T] {
	line := 1 / float64(n)
	out := make([]ItemEstimate[T], 0, len(tel.TopN))

	for _, st := range tel.TopN {
		if st.PHat <= line {
			continue
		}

		out = append(out, ItemEstimate[T]{
			Item:  st.Item,
			Count: st.FHat,
			Freq:  st.PHat,
		})
	}

	return out
}

// newSummaries allocates m fresh sketches of capacity q.
func newSummaries[T cmp.Ordered](m, q int) ([]*spacesaving.Summary[T], error) {
	summaries := make([]*spacesaving.Summary[T], m)

	for i := range summaries {
		s, err := spacesaving.New[T](q)
		if err != nil {
			return nil, err
		}

		summaries[i] = s
	}

	return summaries, nil
}
