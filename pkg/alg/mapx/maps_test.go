package mapx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/mapx"
)

func TestClone(t *testing.T) {
	t.Parallel()

	t.Run("nil_map", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, mapx.Clone[string, int](nil))
	})

	t.Run("independent_copy", func(t *testing.T) {
		t.Parallel()

		src := map[string]int{"a": 1, "b": 2}
		clone := mapx.Clone(src)

		assert.Equal(t, src, clone)

		clone["a"] = 99
		assert.Equal(t, 1, src["a"])
	})
}

func TestSortedKeys(t *testing.T) {
	t.Parallel()

	t.Run("empty_map", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, mapx.SortedKeys(map[int]string{}))
	})

	t.Run("ascending_order", func(t *testing.T) {
		t.Parallel()

		m := map[int]string{3: "c", 1: "a", 2: "b"}
		assert.Equal(t, []int{1, 2, 3}, mapx.SortedKeys(m))
	})
}
