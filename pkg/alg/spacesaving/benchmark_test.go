package spacesaving_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
)

const (
	benchCapacity = 256
	benchAlphabet = 4096
	benchWorkers  = 8
)

func benchKeys(n int) []string {
	rng := rand.New(rand.NewSource(1))

	keys := make([]string, n)
	for i := range keys {
		r := rng.Float64()
		keys[i] = fmt.Sprintf("key-%05d", int(r*r*benchAlphabet))
	}

	return keys
}

func BenchmarkInsert(b *testing.B) {
	keys := benchKeys(1 << 16)
	s, _ := spacesaving.New[string](benchCapacity)

	b.ResetTimer()

	for i := 0; b.Loop(); i++ {
		s.Insert(keys[i&(len(keys)-1)])
	}
}

func BenchmarkTopK(b *testing.B) {
	keys := benchKeys(1 << 16)
	s, _ := spacesaving.New[string](benchCapacity)

	for _, k := range keys {
		s.Insert(k)
	}

	b.ResetTimer()

	for b.Loop() {
		_ = s.TopK(16)
	}
}

func BenchmarkAggregate(b *testing.B) {
	keys := benchKeys(1 << 16)

	workers := make([]*spacesaving.Summary[string], benchWorkers)
	for i := range workers {
		workers[i], _ = spacesaving.New[string](benchCapacity)

		for j := i; j < len(keys); j += benchWorkers {
			workers[i].Insert(keys[j])
		}
	}

	b.ResetTimer()

	for b.Loop() {
		_, _, _ = spacesaving.Aggregate(workers, benchWorkers*benchCapacity, 16)
	}
}
