// Package exact provides exact frequency counting over a bounded key domain.
//
// An exact counter is the ground-truth collaborator for sketch evaluation:
// where the domain is known and small enough to hold in memory, it answers
// frequency queries with no error. Inserts and point queries are O(1);
// top-k retrieval sorts the observed items.
package exact

import (
	"cmp"
	"sort"
)

// Entry is one counted item.
type Entry[T cmp.Ordered] struct {
	Item  T
	Count int64
}

// Counter counts exact frequencies for a fixed set of allowed keys.
// Items outside the domain are ignored on insert.
type Counter[T cmp.Ordered] struct {
	domain map[T]struct{}
	counts map[T]int64
}

// NewCounter creates a Counter restricted to the given key domain.
func NewCounter[T cmp.Ordered](keys []T) *Counter[T] {
	domain := make(map[T]struct{}, len(keys))
	for _, k := range keys {
		domain[k] = struct{}{}
	}

	return &Counter[T]{
		domain: domain,
		counts: make(map[T]int64, len(keys)),
	}
}

// Contains reports whether item is within the allowed domain.
func (c *Counter[T]) Contains(item T) bool {
	_, ok := c.domain[item]

	return ok
}

// Insert records one occurrence of item. Items outside the domain are a
// no-op.
func (c *Counter[T]) Insert(item T) {
	if _, ok := c.domain[item]; ok {
		c.counts[item]++
	}
}

// Count returns the exact count for item and whether the item belongs to the
// domain.
func (c *Counter[T]) Count(item T) (int64, bool) {
	if _, ok := c.domain[item]; !ok {
		return 0, false
	}

	return c.counts[item], true
}

// TotalCount returns the sum of all observed counts.
func (c *Counter[T]) TotalCount() int64 {
	var total int64
	for _, v := range c.counts {
		total += v
	}

	return total
}

// Counts returns the observed item counts. The returned map excludes domain
// keys that were never seen.
func (c *Counter[T]) Counts() map[T]int64 {
	out := make(map[T]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}

	return out
}

// TopK returns up to k observed entries in descending count order, ties
// broken by item. A k of zero or less returns all observed entries.
func (c *Counter[T]) TopK(k int) []Entry[T] {
	entries := make([]Entry[T], 0, len(c.counts))
	for item, count := range c.counts {
		entries = append(entries, Entry[T]{Item: item, Count: count})
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

// Merge aggregates the given counters into a new Counter whose domain is the
// union of the input domains and whose counts are the per-item sums.
func Merge[T cmp.Ordered](counters []*Counter[T]) *Counter[T] {
	merged := &Counter[T]{
		domain: make(map[T]struct{}),
		counts: make(map[T]int64),
	}

	for _, c := range counters {
		for k := range c.domain {
			merged.domain[k] = struct{}{}
		}

		for k, v := range c.counts {
			merged.counts[k] += v
		}
	}

	return merged
}
