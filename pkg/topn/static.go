package topn

import (
	"cmp"
	"fmt"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
)

// StaticRunner estimates heavy hitters with a fixed per-worker capacity
// q = n. It carries no cross-window state.
type StaticRunner[T cmp.Ordered] struct {
	m int
	n int

	summaries []*spacesaving.Summary[T]
}

// NewStaticRunner creates a StaticRunner for m partitions and target top-n.
func NewStaticRunner[T cmp.Ordered](m, n int) (*StaticRunner[T], error) {
	if m < 1 {
		return nil, ErrInvalidPartitions
	}

	if n < 1 {
		return nil, ErrInvalidTopN
	}

	return &StaticRunner[T]{m: m, n: n}, nil
}

// Q returns the fixed per-worker capacity.
func (r *StaticRunner[T]) Q() int {
	return r.n
}

// InitializeSketches allocates fresh worker sketches for the window.
func (r *StaticRunner[T]) InitializeSketches(_ int) error {
	summaries, err := newSummaries[T](r.m, r.n)
	if err != nil {
		return fmt.Errorf("static runner: %w", err)
	}

	r.summaries = summaries

	return nil
}

// InsertItem routes one item to its partition's sketch.
func (r *StaticRunner[T]) InsertItem(partitionID int, item T) error {
	if r.summaries == nil {
		return ErrWindowNotInitialized
	}

	if partitionID < 0 || partitionID >= r.m {
		return fmt.Errorf("%w: %d", ErrUnknownPartition, partitionID)
	}

	r.summaries[partitionID].Insert(item)

	return nil
}

// FinalizeWindow merges the worker sketches and publishes the estimates.
func (r *StaticRunner[T]) FinalizeWindow(windowID int) (*WindowResult[T], error) {
	if r.summaries == nil {
		return nil, ErrWindowNotInitialized
	}

	_, tel, err := spacesaving.Aggregate(r.summaries, r.m*r.n, r.n)
	if err != nil {
		return nil, fmt.Errorf("static runner: window %d: %w", windowID, err)
	}

	result := &WindowResult[T]{
		WindowID:  windowID,
		Estimates: estimates(tel, r.n),
		Telemetry: tel,
		Q:         r.n,
		NextQ:     r.n,
	}

	r.summaries = nil

	return result, nil
}
