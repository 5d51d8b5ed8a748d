// Package config loads and validates topfang configuration from file,
// environment, and defaults.
package config

import "errors"

// Validation errors.
var (
	ErrInvalidTopN             = errors.New("config: estimation.n must be at least 1")
	ErrInvalidPartitions       = errors.New("config: estimation.m must be at least 1")
	ErrInvalidAlpha            = errors.New("config: estimation.alpha must be in [0, 1]")
	ErrInvalidTuning           = errors.New("config: estimation.r must be in (0, 1]")
	ErrInvalidPolicy           = errors.New("config: estimation.policy must be divergence or coverage")
	ErrInvalidCapacityBounds   = errors.New("config: estimation capacity bounds must satisfy n <= q_min <= q_max")
	ErrInvalidWorkload         = errors.New("config: workload windows, window_size, and keys must be at least 1")
	ErrInvalidEntropyThreshold = errors.New("config: estimation.entropy_threshold must not be negative")
)

// Policy names accepted by estimation.policy.
const (
	PolicyDivergence = "divergence"
	PolicyCoverage   = "coverage"
)

// Config is the top-level configuration struct for topfang.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Estimation    EstimationConfig    `mapstructure:"estimation"`
	Workload      WorkloadConfig      `mapstructure:"workload"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// EstimationConfig holds the runner and controller knobs.
type EstimationConfig struct {
	// N is the target top-n; the heavy-hitter line is 1/N.
	N int `mapstructure:"n"`

	// M is the number of worker partitions.
	M int `mapstructure:"m"`

	// QMin is the lower capacity clamp; zero defaults to N.
	QMin int `mapstructure:"q_min"`

	// QMax is the upper capacity clamp; zero disables it.
	QMax int `mapstructure:"q_max"`

	// Alpha is the temporal-divergence smoothing factor.
	Alpha float64 `mapstructure:"alpha"`

	// R is the coverage-rule tuning constant.
	R float64 `mapstructure:"r"`

	// Policy selects the adaptive capacity rule.
	Policy string `mapstructure:"policy"`

	// EntropyThreshold skips scoring of windows whose normalised entropy
	// exceeds it; zero disables.
	EntropyThreshold float64 `mapstructure:"entropy_threshold"`

	// Parallel inserts partitions on separate goroutines.
	Parallel bool `mapstructure:"parallel"`
}

// WorkloadConfig holds the synthetic workload shape.
type WorkloadConfig struct {
	Windows      int     `mapstructure:"windows"`
	WindowSize   int64   `mapstructure:"window_size"`
	Keys         int     `mapstructure:"keys"`
	Distribution string  `mapstructure:"distribution"`
	Seed         int64   `mapstructure:"seed"`
	Drift        float64 `mapstructure:"drift"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	LogJSON      bool   `mapstructure:"log_json"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	est := c.Estimation

	if est.N < 1 {
		return ErrInvalidTopN
	}

	if est.M < 1 {
		return ErrInvalidPartitions
	}

	if est.Alpha < 0 || est.Alpha > 1 {
		return ErrInvalidAlpha
	}

	if est.R <= 0 || est.R > 1 {
		return ErrInvalidTuning
	}

	if est.Policy != PolicyDivergence && est.Policy != PolicyCoverage {
		return ErrInvalidPolicy
	}

	if est.EntropyThreshold < 0 {
		return ErrInvalidEntropyThreshold
	}

	qMin := est.QMin
	if qMin == 0 {
		qMin = est.N
	}

	if qMin < est.N || (est.QMax != 0 && est.QMax < qMin) {
		return ErrInvalidCapacityBounds
	}

	wl := c.Workload
	if wl.Windows < 1 || wl.WindowSize < 1 || wl.Keys < 1 {
		return ErrInvalidWorkload
	}

	return nil
}
