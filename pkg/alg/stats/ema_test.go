package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/stats"
)

const emaTolerance = 1e-12

func TestEMA_FirstUpdateInitializes(t *testing.T) {
	t.Parallel()

	e := stats.NewEMA(0.3)

	assert.False(t, e.Initialized())
	assert.Zero(t, e.Value())

	assert.InDelta(t, 5.0, e.Update(5.0), emaTolerance)
	assert.True(t, e.Initialized())
}

func TestEMA_Recurrence(t *testing.T) {
	t.Parallel()

	e := stats.NewEMA(0.5)
	e.Update(4.0)

	assert.InDelta(t, 0.5*8+0.5*4, e.Update(8.0), emaTolerance)
	assert.InDelta(t, 0.5*2+0.5*6, e.Update(2.0), emaTolerance)
}

func TestEMA_SeedPinsBaseline(t *testing.T) {
	t.Parallel()

	e := stats.NewEMA(0.25)
	e.Seed(0)

	assert.True(t, e.Initialized())
	assert.Zero(t, e.Value())

	// With the baseline seeded, the first observation is smoothed instead
	// of adopted wholesale.
	assert.InDelta(t, 0.25*1.0, e.Update(1.0), emaTolerance)
}

func TestEMA_AlphaOneTracksObservations(t *testing.T) {
	t.Parallel()

	e := stats.NewEMA(1)
	e.Update(3)
	e.Update(7)

	assert.InDelta(t, 7, e.Value(), emaTolerance)
}
