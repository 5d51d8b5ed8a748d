// Package hybrid composes exact counting on a known key domain with a
// Space-Saving sketch for everything else.
//
// Every inserted item is routed to exactly one side: items inside the exact
// domain are counted precisely, items outside feed the bounded sketch. The
// two sides therefore see disjoint streams, and the hybrid can bound the
// stream mass its reported counts fail to account for.
package hybrid

import (
	"cmp"
	"fmt"
	"sort"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/exact"
	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
)

// Entry is one reported item with its exact or estimated count.
type Entry[T cmp.Ordered] struct {
	Item  T
	Count int64

	// Exact marks counts from the exact domain.
	Exact bool
}

// Residuals bounds the stream mass not accounted for by the reported counts.
//
// AccountedMin sums the exact mass with the Space-Saving lower bounds
// (count minus overestimation); AccountedMax sums the exact mass with the
// items actually routed to the sketch. The unaccounted residual R then
// satisfies ResidualLB <= R <= ResidualUB.
type Residuals struct {
	N            int64
	AccountedMin int64
	AccountedMax int64
	ResidualLB   int64
	ResidualUB   int64
}

// Sketch routes a stream between an exact counter and a Space-Saving
// summary. Not safe for concurrent use.
type Sketch[T cmp.Ordered] struct {
	exact   *exact.Counter[T]
	summary *spacesaving.Summary[T]

	seen     int64
	routedSS int64
}

// New creates a hybrid sketch counting exactKeys precisely and tracking at
// most capacity other items approximately.
func New[T cmp.Ordered](exactKeys []T, capacity int) (*Sketch[T], error) {
	summary, err := spacesaving.New[T](capacity)
	if err != nil {
		return nil, fmt.Errorf("hybrid: %w", err)
	}

	return &Sketch[T]{
		exact:   exact.NewCounter(exactKeys),
		summary: summary,
	}, nil
}

// Insert records one occurrence of item on exactly one side.
func (s *Sketch[T]) Insert(item T) {
	s.seen++

	if s.exact.Contains(item) {
		s.exact.Insert(item)

		return
	}

	s.routedSS++
	s.summary.Insert(item)
}

// Contains reports whether item is in the exact domain or currently tracked
// by the sketch side.
func (s *Sketch[T]) Contains(item T) bool {
	return s.exact.Contains(item) || s.summary.Contains(item)
}

// Count returns the reported count for item: exact for domain items,
// the Space-Saving estimate for tracked items, and false for items the
// hybrid knows nothing about.
func (s *Sketch[T]) Count(item T) (int64, bool) {
	if c, ok := s.exact.Count(item); ok {
		return c, true
	}

	if s.summary.Contains(item) {
		return s.summary.Count(item), true
	}

	return 0, false
}

// TotalCount returns the number of items seen by the hybrid, independent of
// sketch capacity.
func (s *Sketch[T]) TotalCount() int64 {
	return s.seen
}

// TopK returns up to k reported entries across both sides in descending
// count order, ties broken by item. A k of zero or less returns all
// observed entries.
func (s *Sketch[T]) TopK(k int) []Entry[T] {
	entries := make([]Entry[T], 0, s.summary.Len())

	for _, e := range s.exact.TopK(0) {
		entries = append(entries, Entry[T]{Item: e.Item, Count: e.Count, Exact: true})
	}

	for e := range s.summary.Entries() {
		entries = append(entries, Entry[T]{Item: e.Item, Count: e.Count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}

		return entries[i].Item < entries[j].Item
	})

	if k > 0 && k < len(entries) {
		entries = entries[:k]
	}

	return entries
}

// Residuals bounds the unaccounted stream mass from the Space-Saving
// guarantees and the routing counters.
func (s *Sketch[T]) Residuals() Residuals {
	exactMass := s.exact.TotalCount()

	var lbMass int64

	for e := range s.summary.Entries() {
		lb := e.Count - e.Overestimation
		if lb > 0 {
			lbMass += lb
		}
	}

	r := Residuals{
		N:            s.seen,
		AccountedMin: exactMass + lbMass,
		AccountedMax: exactMass + s.routedSS,
	}

	r.ResidualLB = max(0, r.N-r.AccountedMax)
	r.ResidualUB = max(0, r.N-r.AccountedMin)

	return r
}
