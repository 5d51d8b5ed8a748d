package topn

import (
	"cmp"
	"fmt"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
)

// AdaptiveRunner estimates heavy hitters with per-window capacity chosen by
// a Controller from the divergence telemetry of previous windows.
type AdaptiveRunner[T cmp.Ordered] struct {
	m          int
	n          int
	controller *Controller[T]

	q         int
	summaries []*spacesaving.Summary[T]
}

// NewAdaptiveRunner creates an AdaptiveRunner for m partitions using the
// given controller configuration.
func NewAdaptiveRunner[T cmp.Ordered](m int, cfg ControllerConfig) (*AdaptiveRunner[T], error) {
	if m < 1 {
		return nil, ErrInvalidPartitions
	}

	controller, err := NewController[T](cfg)
	if err != nil {
		return nil, err
	}

	return &AdaptiveRunner[T]{
		m:          m,
		n:          cfg.N,
		controller: controller,
		q:          controller.Q(),
	}, nil
}

// Q returns the per-worker capacity for the current window.
func (r *AdaptiveRunner[T]) Q() int {
	return r.q
}

// Controller exposes the runner's controller, read-only between windows.
func (r *AdaptiveRunner[T]) Controller() *Controller[T] {
	return r.controller
}

// InitializeSketches allocates fresh worker sketches at the current
// capacity.
func (r *AdaptiveRunner[T]) InitializeSketches(_ int) error {
	summaries, err := newSummaries[T](r.m, r.q)
	if err != nil {
		return fmt.Errorf("adaptive runner: %w", err)
	}

	r.summaries = summaries

	return nil
}

// InsertItem routes one item to its partition's sketch.
func (r *AdaptiveRunner[T]) InsertItem(partitionID int, item T) error {
	if r.summaries == nil {
		return ErrWindowNotInitialized
	}

	if partitionID < 0 || partitionID >= r.m {
		return fmt.Errorf("%w: %d", ErrUnknownPartition, partitionID)
	}

	r.summaries[partitionID].Insert(item)

	return nil
}

// FinalizeWindow merges the worker sketches, publishes the estimates, and
// feeds the telemetry to the controller to size the next window.
func (r *AdaptiveRunner[T]) FinalizeWindow(windowID int) (*WindowResult[T], error) {
	if r.summaries == nil {
		return nil, ErrWindowNotInitialized
	}

	// The merged sketch holds at most the union of worker-tracked items,
	// bounded by the sum of worker capacities.
	_, tel, err := spacesaving.Aggregate(r.summaries, r.m*r.q, r.n)
	if err != nil {
		return nil, fmt.Errorf("adaptive runner: window %d: %w", windowID, err)
	}

	nextQ := r.controller.Update(r.summaries, tel)

	result := &WindowResult[T]{
		WindowID:           windowID,
		Estimates:          estimates(tel, r.n),
		Telemetry:          tel,
		Q:                  r.q,
		NextQ:              nextQ,
		SpatialDivergence:  r.controller.SpatialDivergence(),
		TemporalDivergence: r.controller.TemporalDivergence(),
	}

	r.q = nextQ
	r.summaries = nil

	return result, nil
}
