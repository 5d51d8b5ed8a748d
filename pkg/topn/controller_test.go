package topn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
	"github.com/Sumatoshi-tech/topfang/pkg/topn"
)

func newController(t *testing.T, cfg topn.ControllerConfig) *topn.Controller[string] {
	t.Helper()

	c, err := topn.NewController[string](cfg)
	require.NoError(t, err)

	return c
}

func workerAfter(t *testing.T, capacity int, items ...string) *spacesaving.Summary[string] {
	t.Helper()

	s, err := spacesaving.New[string](capacity)
	require.NoError(t, err)

	for _, it := range items {
		s.Insert(it)
	}

	return s
}

func aggregateAll(t *testing.T, workers []*spacesaving.Summary[string], n int) *spacesaving.Telemetry[string] {
	t.Helper()

	capacity := 0
	for _, w := range workers {
		capacity += w.Capacity()
	}

	_, tel, err := spacesaving.Aggregate(workers, capacity, n)
	require.NoError(t, err)

	return tel
}

func TestNewController_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     topn.ControllerConfig
		wantErr error
	}{
		{
			name:    "zero_n",
			cfg:     topn.ControllerConfig{N: 0, Alpha: 0.5},
			wantErr: topn.ErrInvalidTopN,
		},
		{
			name:    "alpha_above_one",
			cfg:     topn.ControllerConfig{N: 5, Alpha: 1.5},
			wantErr: topn.ErrInvalidAlpha,
		},
		{
			name:    "negative_alpha",
			cfg:     topn.ControllerConfig{N: 5, Alpha: -0.1},
			wantErr: topn.ErrInvalidAlpha,
		},
		{
			name:    "q_min_below_n",
			cfg:     topn.ControllerConfig{N: 5, Alpha: 0.5, QMin: 3},
			wantErr: topn.ErrInvalidBounds,
		},
		{
			name:    "q_max_below_q_min",
			cfg:     topn.ControllerConfig{N: 5, Alpha: 0.5, QMin: 10, QMax: 7},
			wantErr: topn.ErrInvalidBounds,
		},
		{
			name:    "negative_r",
			cfg:     topn.ControllerConfig{N: 5, Alpha: 0.5, Policy: topn.PolicyCoverage, R: -0.2},
			wantErr: topn.ErrInvalidTuning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := topn.NewController[string](tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestController_InitialCapacityIsLowerClamp(t *testing.T) {
	t.Parallel()

	c := newController(t, topn.ControllerConfig{N: 4, Alpha: 0.5})
	assert.Equal(t, 4, c.Q())

	c = newController(t, topn.ControllerConfig{N: 4, Alpha: 0.5, QMin: 9})
	assert.Equal(t, 9, c.Q())
}

func TestController_StationaryStreamConvergesToN(t *testing.T) {
	t.Parallel()

	// Every window and every worker sees the same distribution, so both
	// the spatial and the temporal divergence stay at 0 and q stays at n.
	const n = 2

	c := newController(t, topn.ControllerConfig{N: n, Alpha: 0.5})

	for range 4 {
		workers := []*spacesaving.Summary[string]{
			workerAfter(t, c.Q(), "a", "a", "a", "b"),
			workerAfter(t, c.Q(), "a", "a", "a", "b"),
		}

		tel := aggregateAll(t, workers, n)
		q := c.Update(workers, tel)

		assert.Equal(t, n, q)
		assert.InDelta(t, 0, c.SpatialDivergence(), 1e-9)
		assert.InDelta(t, 0, c.TemporalDivergence(), 1e-9)
	}
}

func TestController_SpatialSkewGrowsCapacity(t *testing.T) {
	t.Parallel()

	const n = 2

	c := newController(t, topn.ControllerConfig{N: n, Alpha: 0.5})

	// Workers see disjoint keys: the local distributions diverge from the
	// global one, so the next capacity must exceed n.
	workers := []*spacesaving.Summary[string]{
		workerAfter(t, 4, "a", "a", "b"),
		workerAfter(t, 4, "c", "c", "d"),
	}

	tel := aggregateAll(t, workers, n)
	q := c.Update(workers, tel)

	assert.Greater(t, c.SpatialDivergence(), 0.0)
	assert.Greater(t, q, n)
}

func TestController_TemporalShiftRaisesLt(t *testing.T) {
	t.Parallel()

	const n = 2

	c := newController(t, topn.ControllerConfig{N: n, Alpha: 0.5})

	// Window 1: all mass on {a, b}. The first window never has temporal
	// divergence.
	w1 := []*spacesaving.Summary[string]{workerAfter(t, 4, "a", "a", "b")}
	c.Update(w1, aggregateAll(t, w1, n))
	assert.InDelta(t, 0, c.TemporalDivergence(), 1e-9)

	// Window 2: mass moves to {x, y}; the smoothed temporal divergence is
	// (1-alpha) * JSD(prev, curr) = 0.5 * 1.
	w2 := []*spacesaving.Summary[string]{workerAfter(t, 4, "x", "x", "y")}
	q := c.Update(w2, aggregateAll(t, w2, n))

	assert.InDelta(t, 0.5, c.TemporalDivergence(), 1e-9)
	assert.Greater(t, q, n)
}

func TestController_DegenerateWindowYieldsLowerClamp(t *testing.T) {
	t.Parallel()

	c := newController(t, topn.ControllerConfig{N: 3, Alpha: 0.5})

	empty, err := spacesaving.New[string](3)
	require.NoError(t, err)

	workers := []*spacesaving.Summary[string]{empty}
	tel := aggregateAll(t, workers, 3)

	assert.Equal(t, 3, c.Update(workers, tel))
	assert.Zero(t, c.SpatialDivergence())
	assert.Zero(t, c.TemporalDivergence())
}

func TestController_UpperClamp(t *testing.T) {
	t.Parallel()

	const n = 2

	c := newController(t, topn.ControllerConfig{N: n, Alpha: 0.5, QMax: n})

	workers := []*spacesaving.Summary[string]{
		workerAfter(t, 4, "a", "a", "b"),
		workerAfter(t, 4, "c", "c", "d"),
	}

	tel := aggregateAll(t, workers, n)
	assert.Equal(t, n, c.Update(workers, tel))
}

func TestController_CoveragePolicy(t *testing.T) {
	t.Parallel()

	const n = 2

	c := newController(t, topn.ControllerConfig{
		N:      n,
		Alpha:  0.5,
		Policy: topn.PolicyCoverage,
		R:      0.5,
	})

	// Both workers track everything they saw, so omega_min is 1 and the
	// coverage rule gives ceil((n/r) * (2-1)) = 4.
	workers := []*spacesaving.Summary[string]{
		workerAfter(t, 4, "a", "a", "b"),
		workerAfter(t, 4, "a", "b", "b"),
	}

	tel := aggregateAll(t, workers, n)
	require.InDelta(t, 1.0, tel.OmegaMin, 1e-9)

	assert.Equal(t, 4, c.Update(workers, tel))
}

func TestController_DistributionCopyIsIndependent(t *testing.T) {
	t.Parallel()

	c := newController(t, topn.ControllerConfig{N: 2, Alpha: 0.5})

	workers := []*spacesaving.Summary[string]{workerAfter(t, 4, "a", "a", "b")}
	c.Update(workers, aggregateAll(t, workers, 2))

	dist := c.Distribution()
	require.NotNil(t, dist)
	assert.InDelta(t, 2.0/3.0, dist["a"], 1e-9)

	dist["a"] = 0
	assert.InDelta(t, 2.0/3.0, c.Distribution()["a"], 1e-9)
}
