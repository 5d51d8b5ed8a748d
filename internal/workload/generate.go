package workload

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/exact"
	"github.com/Sumatoshi-tech/topfang/pkg/alg/mapx"
)

// keyLabelFormat renders a key rank as a stable opaque identifier.
const keyLabelFormat = "key-%05d"

var (
	// ErrInvalidOptions is returned for non-positive window, key, or
	// partition counts.
	ErrInvalidOptions = errors.New("workload: windows, window size, keys, and partitions must be positive")
)

// Options parameterizes dataset generation.
type Options struct {
	// Windows is the number of processing windows.
	Windows int

	// WindowSize is the number of events per window.
	WindowSize int64

	// Keys is the size of the key universe.
	Keys int

	// Partitions is the number of worker partitions (m).
	Partitions int

	// TopN is the heavy-hitter target recorded as the summary hint.
	TopN int

	// Distribution is one of the Distribution* names.
	Distribution string

	// Seed drives all random choices; equal seeds give equal datasets.
	Seed int64

	// Partitioning controls the per-key partition skew. Zero value gets
	// DefaultPartitionOptions(TopN).
	Partitioning PartitionOptions

	// DriftFraction is the fraction of key ranks whose labels are swapped
	// between consecutive windows, introducing temporal divergence. Zero
	// keeps the distribution stationary across windows.
	DriftFraction float64
}

// WindowStream is the partitioned item stream of one window.
type WindowStream struct {
	ID         int
	Partitions map[int][]string
}

// WindowSummary is the ground truth of one window: the distribution tag, the
// exact per-key counts, and the top-n hint.
type WindowSummary struct {
	Distribution string
	Counts       map[string]int64
	NHint        int
}

// Dataset pairs the generated streams with their ground-truth summaries.
type Dataset struct {
	Streams   []WindowStream
	Summaries []WindowSummary
}

// Generate builds a synthetic partitioned stream with known per-window
// ground truth.
func Generate(opts Options) (*Dataset, error) {
	if opts.Windows < 1 || opts.WindowSize < 1 || opts.Keys < 1 || opts.Partitions < 1 {
		return nil, ErrInvalidOptions
	}

	gen, err := NewGenerator(opts.Distribution)
	if err != nil {
		return nil, err
	}

	partOpts := opts.Partitioning
	if partOpts == (PartitionOptions{}) {
		partOpts = DefaultPartitionOptions(opts.TopN)
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	labels := make([]string, opts.Keys)
	for i := range labels {
		labels[i] = fmt.Sprintf(keyLabelFormat, i)
	}

	ds := &Dataset{
		Streams:   make([]WindowStream, 0, opts.Windows),
		Summaries: make([]WindowSummary, 0, opts.Windows),
	}

	for w := range opts.Windows {
		if w > 0 && opts.DriftFraction > 0 {
			driftLabels(rng, labels, opts.DriftFraction)
		}

		counts := gen.Frequencies(rng, opts.Keys, opts.WindowSize)

		freq := make(map[string]int64, opts.Keys)
		for rank, count := range counts {
			if count > 0 {
				freq[labels[rank]] = count
			}
		}

		assigned := AssignPartitions(rng, freq, opts.Partitions, partOpts)

		stream := WindowStream{ID: w, Partitions: make(map[int][]string, opts.Partitions)}
		truth := exact.NewCounter(labels)

		for _, p := range mapx.SortedKeys(assigned) {
			items := expandCounts(rng, assigned[p])
			stream.Partitions[p] = items

			for _, item := range items {
				truth.Insert(item)
			}
		}

		ds.Streams = append(ds.Streams, stream)
		ds.Summaries = append(ds.Summaries, WindowSummary{
			Distribution: gen.Name(),
			Counts:       truth.Counts(),
			NHint:        opts.TopN,
		})
	}

	return ds, nil
}

// driftLabels swaps a fraction of key-rank labels pairwise, shuffling which
// identifiers occupy the popular ranks.
func driftLabels(rng *rand.Rand, labels []string, fraction float64) {
	swaps := int(fraction * float64(len(labels)) / 2)

	for range swaps {
		i := rng.Intn(len(labels))
		j := rng.Intn(len(labels))
		labels[i], labels[j] = labels[j], labels[i]
	}
}

// expandCounts turns a key-count map into a shuffled item sequence with
// exactly count occurrences per key.
func expandCounts(rng *rand.Rand, counts map[string]int64) []string {
	var total int64
	for _, c := range counts {
		total += c
	}

	items := make([]string, 0, total)

	for _, k := range mapx.SortedKeys(counts) {
		for range counts[k] {
			items = append(items, k)
		}
	}

	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	return items
}
