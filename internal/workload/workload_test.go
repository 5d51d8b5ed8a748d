package workload_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/topfang/internal/workload"
)

const testSeed = 42

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		workload.DistributionZipfian,
		workload.DistributionUniform,
		workload.DistributionNormal,
		workload.DistributionFlattened,
	} {
		gen, err := workload.NewGenerator(name)
		require.NoError(t, err)
		assert.Equal(t, name, gen.Name())
	}

	_, err := workload.NewGenerator("pareto")
	assert.ErrorIs(t, err, workload.ErrUnknownDistribution)
}

func TestGenerators_ConserveMass(t *testing.T) {
	t.Parallel()

	const (
		keys   = 100
		events = 10_000
	)

	for _, name := range []string{
		workload.DistributionZipfian,
		workload.DistributionUniform,
		workload.DistributionNormal,
		workload.DistributionFlattened,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gen, err := workload.NewGenerator(name)
			require.NoError(t, err)

			rng := rand.New(rand.NewSource(testSeed))
			counts := gen.Frequencies(rng, keys, events)
			require.Len(t, counts, keys)

			var total int64
			for _, c := range counts {
				require.GreaterOrEqual(t, c, int64(0))
				total += c
			}

			assert.Equal(t, int64(events), total)
		})
	}
}

func TestZipfian_HeadDominates(t *testing.T) {
	t.Parallel()

	gen := &workload.ZipfianGenerator{S: 1.5, V: 1}
	rng := rand.New(rand.NewSource(testSeed))
	counts := gen.Frequencies(rng, 1000, 50_000)

	assert.Greater(t, counts[0], counts[500])
	assert.Greater(t, counts[0], int64(50_000/10), "rank 0 should carry a large share")
}

func TestFlattened_HeadIsLevel(t *testing.T) {
	t.Parallel()

	gen := &workload.FlattenedHHGenerator{S: 1.5, V: 1, FlattenTop: 5}
	rng := rand.New(rand.NewSource(testSeed))
	counts := gen.Frequencies(rng, 100, 20_000)

	for i := 1; i < 5; i++ {
		diff := counts[0] - counts[i]
		assert.LessOrEqual(t, diff, int64(1), "head ranks should differ by at most the remainder")
	}
}

func TestAssignPartitions_ConservesMass(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(testSeed))

	freq := map[string]int64{
		"hot-1":  5000,
		"hot-2":  3000,
		"warm-1": 700,
		"warm-2": 500,
		"cold-1": 9,
		"cold-2": 1,
	}

	assigned := workload.AssignPartitions(rng, freq, 4, workload.DefaultPartitionOptions(2))
	require.Len(t, assigned, 4)

	perKey := make(map[string]int64)

	for _, counts := range assigned {
		for k, c := range counts {
			assert.Greater(t, c, int64(0))
			perKey[k] += c
		}
	}

	assert.Equal(t, freq, perKey)
}

func TestAssignPartitions_SinglePartition(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(testSeed))
	freq := map[string]int64{"a": 10, "b": 3}

	assigned := workload.AssignPartitions(rng, freq, 1, workload.DefaultPartitionOptions(1))
	require.Len(t, assigned, 1)
	assert.Equal(t, freq, assigned[0])
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	t.Parallel()

	opts := workload.Options{
		Windows:      2,
		WindowSize:   2000,
		Keys:         50,
		Partitions:   3,
		TopN:         5,
		Distribution: workload.DistributionZipfian,
		Seed:         testSeed,
	}

	ds1, err := workload.Generate(opts)
	require.NoError(t, err)

	ds2, err := workload.Generate(opts)
	require.NoError(t, err)

	require.Len(t, ds1.Streams, 2)
	require.Len(t, ds1.Summaries, 2)
	assert.Equal(t, ds1.Streams, ds2.Streams)
	assert.Equal(t, ds1.Summaries, ds2.Summaries)
}

func TestGenerate_GroundTruthMatchesStreams(t *testing.T) {
	t.Parallel()

	opts := workload.Options{
		Windows:      3,
		WindowSize:   1500,
		Keys:         40,
		Partitions:   4,
		TopN:         5,
		Distribution: workload.DistributionUniform,
		Seed:         testSeed,
	}

	ds, err := workload.Generate(opts)
	require.NoError(t, err)

	for w, stream := range ds.Streams {
		counted := make(map[string]int64)

		var total int64

		for _, items := range stream.Partitions {
			for _, it := range items {
				counted[it]++
				total++
			}
		}

		assert.Equal(t, int64(1500), total, "window %d", w)
		assert.Equal(t, ds.Summaries[w].Counts, counted, "window %d", w)
		assert.Equal(t, 5, ds.Summaries[w].NHint)
		assert.Equal(t, workload.DistributionUniform, ds.Summaries[w].Distribution)
	}
}

func TestGenerate_DriftChangesWindows(t *testing.T) {
	t.Parallel()

	opts := workload.Options{
		Windows:       2,
		WindowSize:    5000,
		Keys:          100,
		Partitions:    2,
		TopN:          5,
		Distribution:  workload.DistributionZipfian,
		Seed:          testSeed,
		DriftFraction: 0.5,
	}

	ds, err := workload.Generate(opts)
	require.NoError(t, err)

	assert.NotEqual(t, ds.Summaries[0].Counts, ds.Summaries[1].Counts)
}

func TestGenerate_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := workload.Generate(workload.Options{Distribution: workload.DistributionUniform})
	assert.ErrorIs(t, err, workload.ErrInvalidOptions)

	_, err = workload.Generate(workload.Options{
		Windows: 1, WindowSize: 10, Keys: 5, Partitions: 1,
		Distribution: "nope",
	})
	assert.ErrorIs(t, err, workload.ErrUnknownDistribution)
}
