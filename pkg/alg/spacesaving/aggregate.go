package spacesaving

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTopN is returned when the requested top-n size is less than 1.
var ErrInvalidTopN = errors.New("spacesaving: top-n must be at least 1")

// tauPercentile is the residual-coverage quantile reported as TauSP.
const tauPercentile = 0.95

// ItemStats holds the per-item confidence telemetry derived during
// aggregation.
//
// FHat is the summed per-worker estimate, PHat the global point estimate
// FHat/N, and Overestimation the summed per-worker overestimation. PFloor and
// PCeil bound the item's true global probability: PFloor subtracts the
// overestimation mass, PCeil adds the mass of workers that never tracked the
// item. Omega is the coverage, the fraction of total mass contributed by
// workers that did track the item.
type ItemStats[T cmp.Ordered] struct {
	Item           T
	FHat           int64
	Overestimation int64
	PHat           float64
	PFloor         float64
	PCeil          float64
	Omega          float64
}

// Telemetry is the confidence record produced alongside a merged sketch.
type Telemetry[T cmp.Ordered] struct {
	// N is the global total count across all workers.
	N int64

	// ItemStats maps every item tracked by at least one worker to its
	// derived statistics.
	ItemStats map[T]ItemStats[T]

	// Reporters maps each item to the ascending indices of the workers that
	// tracked it.
	Reporters map[T][]int

	// TopN holds the n items with the largest PHat, ties broken by item,
	// in descending PHat order.
	TopN []ItemStats[T]

	// Candidates is the candidate set: TopN plus every item outside it whose
	// PCeil still clears the heavy-hitter line 1/n. Ordered as TopN followed
	// by the challengers in descending PHat order, ties broken by item.
	Candidates []ItemStats[T]

	// OmegaMin is the minimum coverage over the candidate set, 0 when empty.
	OmegaMin float64

	// TauSP is the 95th percentile of residual coverage 1-Omega over the
	// candidate set, 0 when empty. High values mean candidate reporting is
	// concentrated in few workers.
	TauSP float64
}

// Aggregate merges the given worker summaries into a single sketch of the
// given capacity and computes the global telemetry for the top n items.
//
// Merging is commutative: the merged counts and the telemetry are independent
// of the order of summaries up to the worker indices recorded in Reporters.
// The merged sketch is built with MergeElement only, so it never evicts;
// capacity must cover the union of tracked items (the sum of worker
// capacities is always sufficient).
//
// An empty summaries slice is not an error: the result is an empty sketch and
// all-zero telemetry.
func Aggregate[T cmp.Ordered](summaries []*Summary[T], capacity, n int) (*Summary[T], *Telemetry[T], error) {
	if n < 1 {
		return nil, nil, ErrInvalidTopN
	}

	merged, err := New[T](capacity)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate: %w", err)
	}

	var total int64
	for _, s := range summaries {
		total += s.TotalCount()
	}

	type accum struct {
		fHat    int64
		covered int64
		over    int64
	}

	accums := make(map[T]*accum)
	reporters := make(map[T][]int)

	for i, s := range summaries {
		workerTotal := s.TotalCount()

		for e := range s.Entries() {
			a, ok := accums[e.Item]
			if !ok {
				a = &accum{}
				accums[e.Item] = a
			}

			a.fHat += e.Count
			a.covered += workerTotal
			a.over += e.Overestimation
			reporters[e.Item] = append(reporters[e.Item], i)
		}
	}

	stats := make(map[T]ItemStats[T], len(accums))
	ordered := make([]ItemStats[T], 0, len(accums))

	for item, a := range accums {
		st := ItemStats[T]{
			Item:           item,
			FHat:           a.fHat,
			Overestimation: a.over,
		}

		if total > 0 {
			st.PHat = float64(a.fHat) / float64(total)
			st.Omega = float64(a.covered) / float64(total)
			st.PFloor = max(0, st.PHat-float64(a.over)/float64(total))
			st.PCeil = min(1, st.PHat+float64(total-a.covered)/float64(total))
		}

		stats[item] = st
		ordered = append(ordered, st)
	}

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].PHat != ordered[j].PHat {
			return ordered[i].PHat > ordered[j].PHat
		}

		return ordered[i].Item < ordered[j].Item
	})

	topN := ordered
	if len(topN) > n {
		topN = topN[:n]
	}

	candidates := make([]ItemStats[T], len(topN), len(ordered))
	copy(candidates, topN)

	line := 1 / float64(n)
	for _, st := range ordered[len(topN):] {
		if st.PCeil > line {
			candidates = append(candidates, st)
		}
	}

	tel := &Telemetry[T]{
		N:          total,
		ItemStats:  stats,
		Reporters:  reporters,
		TopN:       topN,
		Candidates: candidates,
	}

	if len(candidates) > 0 {
		tel.OmegaMin = candidates[0].Omega
		residuals := make([]float64, len(candidates))

		for i, st := range candidates {
			if st.Omega < tel.OmegaMin {
				tel.OmegaMin = st.Omega
			}

			residuals[i] = 1 - st.Omega
		}

		sort.Float64s(residuals)

		idx := int(tauPercentile * float64(len(residuals)))
		if idx >= len(residuals) {
			idx = len(residuals) - 1
		}

		tel.TauSP = residuals[idx]
	}

	for _, s := range summaries {
		for e := range s.Entries() {
			mergeErr := merged.MergeElement(e.Item, e.Count, e.Overestimation)
			if mergeErr != nil {
				return nil, nil, fmt.Errorf("aggregate: merge %v: %w", e.Item, mergeErr)
			}
		}
	}

	return merged, tel, nil
}
