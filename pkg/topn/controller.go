package topn

import (
	"cmp"
	"math"

	"github.com/Sumatoshi-tech/topfang/pkg/alg/divergence"
	"github.com/Sumatoshi-tech/topfang/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/topfang/pkg/alg/spacesaving"
	"github.com/Sumatoshi-tech/topfang/pkg/alg/stats"
)

// Policy selects the capacity rule the adaptive controller applies.
type Policy string

const (
	// PolicyDivergence sizes capacity from spatial and temporal divergence:
	// q = ceil(n * (1 + L + L_t)).
	PolicyDivergence Policy = "divergence"

	// PolicyCoverage sizes capacity from candidate-set coverage:
	// q = ceil((n / r) * (2 - omega_min)).
	PolicyCoverage Policy = "coverage"
)

// DefaultCoverageTuning is the default coverage-rule constant r.
const DefaultCoverageTuning = 0.15

// ControllerConfig parameterizes a Controller.
type ControllerConfig struct {
	// N is the target top-n size. Required, at least 1.
	N int

	// Alpha is the temporal-divergence smoothing factor in [0, 1]. Higher
	// values weight history more.
	Alpha float64

	// QMin is the lower capacity clamp. Zero defaults to N; explicit values
	// must be at least N.
	QMin int

	// QMax is the upper capacity clamp. Zero disables the upper clamp.
	QMax int

	// Policy is the capacity rule. Empty defaults to PolicyDivergence.
	Policy Policy

	// R is the coverage-rule tuning constant in (0, 1]. Zero defaults to
	// DefaultCoverageTuning. Ignored by PolicyDivergence.
	R float64
}

// Controller chooses the next window's sketch capacity so the sketches hold
// enough mass to cover all likely heavy hitters despite spatial (across
// workers) and temporal (across windows) skew.
//
// The controller is pure given its state and never errors; it carries the
// only cross-window state in the system and is mutated exclusively between
// windows on the orchestrator goroutine.
type Controller[T cmp.Ordered] struct {
	n      int
	alpha  float64
	qMin   int
	qMax   int
	policy Policy
	r      float64

	prev     map[T]float64
	smoothed *stats.EMA

	q        int
	spatial  float64
	temporal float64
}

// NewController creates a Controller with capacity initialised to the lower
// clamp.
func NewController[T cmp.Ordered](cfg ControllerConfig) (*Controller[T], error) {
	if cfg.N < 1 {
		return nil, ErrInvalidTopN
	}

	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return nil, ErrInvalidAlpha
	}

	qMin := cfg.QMin
	if qMin == 0 {
		qMin = cfg.N
	}

	if qMin < cfg.N || (cfg.QMax != 0 && cfg.QMax < qMin) {
		return nil, ErrInvalidBounds
	}

	policy := cfg.Policy
	if policy == "" {
		policy = PolicyDivergence
	}

	r := cfg.R
	if r == 0 {
		r = DefaultCoverageTuning
	}

	if r < 0 || r > 1 {
		return nil, ErrInvalidTuning
	}

	// The smoothed temporal divergence follows
	// L_t = alpha*L_t_prev + (1-alpha)*jsd, so the EMA's new-observation
	// weight is 1-alpha and the recurrence starts from 0.
	smoothed := stats.NewEMA(1 - cfg.Alpha)
	smoothed.Seed(0)

	return &Controller[T]{
		n:        cfg.N,
		alpha:    cfg.Alpha,
		qMin:     qMin,
		qMax:     cfg.QMax,
		policy:   policy,
		r:        r,
		smoothed: smoothed,
		q:        qMin,
	}, nil
}

// Q returns the capacity to use for the current window.
func (c *Controller[T]) Q() int {
	return c.q
}

// SpatialDivergence returns the spatial divergence L of the last update.
func (c *Controller[T]) SpatialDivergence() float64 {
	return c.spatial
}

// TemporalDivergence returns the smoothed temporal divergence L_t of the
// last update.
func (c *Controller[T]) TemporalDivergence() float64 {
	return c.temporal
}

// Distribution returns a copy of the stored global distribution from the
// last update, nil before the first.
func (c *Controller[T]) Distribution() map[T]float64 {
	return mapx.Clone(c.prev)
}

// Update consumes the window's worker sketches and aggregation telemetry,
// persists the global distribution, and returns the capacity for the next
// window.
//
// Degenerate telemetry (N = 0) resets divergences and yields the lower
// clamp.
func (c *Controller[T]) Update(summaries []*spacesaving.Summary[T], tel *spacesaving.Telemetry[T]) int {
	if tel.N == 0 {
		// An empty previous distribution would read as maximal shift on the
		// next comparison, so the next non-empty window starts fresh.
		c.spatial = 0
		c.temporal = 0
		c.smoothed.Seed(0)
		c.prev = nil
		c.q = c.qMin

		return c.q
	}

	global := make(map[T]float64, len(tel.ItemStats))
	for item, st := range tel.ItemStats {
		global[item] = st.PHat
	}

	c.spatial = spatialDivergence(summaries, global)

	if c.prev == nil {
		// First window: no previous distribution to compare against.
		c.temporal = 0
	} else {
		c.temporal = c.smoothed.Update(divergence.JSD(c.prev, global))
	}

	switch c.policy {
	case PolicyCoverage:
		c.q = int(math.Ceil(float64(c.n) / c.r * (2 - tel.OmegaMin)))
	case PolicyDivergence:
		fallthrough
	default:
		c.q = int(math.Ceil(float64(c.n) * (1 + c.spatial + c.temporal)))
	}

	if c.q < c.qMin {
		c.q = c.qMin
	}

	if c.qMax > 0 && c.q > c.qMax {
		c.q = c.qMax
	}

	c.prev = global

	return c.q
}

// spatialDivergence is the maximum squared Jensen-Shannon distance between
// any worker's local distribution and the merged global one. Workers with no
// mass contribute 0.
func spatialDivergence[T cmp.Ordered](summaries []*spacesaving.Summary[T], global map[T]float64) float64 {
	var maxJSD float64

	for _, s := range summaries {
		total := s.TotalCount()
		if total == 0 {
			continue
		}

		local := make(map[T]float64, s.Len())
		for e := range s.Entries() {
			local[e.Item] = float64(e.Count) / float64(total)
		}

		if d := divergence.JSD(local, global); d > maxJSD {
			maxJSD = d
		}
	}

	return maxJSD
}
