package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".topfang"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for topfang settings.
const envPrefix = "TOPFANG"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Workload and estimation defaults.
const (
	DefaultTopN         = 10
	DefaultPartitions   = 4
	DefaultAlpha        = 0.5
	DefaultTuning       = 0.15
	DefaultWindows      = 5
	DefaultWindowSize   = 20000
	DefaultKeys         = 5000
	DefaultSeed         = 42
	DefaultDistribution = "zipfian"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME, and finding no
// file there is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("estimation.n", DefaultTopN)
	viperCfg.SetDefault("estimation.m", DefaultPartitions)
	viperCfg.SetDefault("estimation.q_min", 0)
	viperCfg.SetDefault("estimation.q_max", 0)
	viperCfg.SetDefault("estimation.alpha", DefaultAlpha)
	viperCfg.SetDefault("estimation.r", DefaultTuning)
	viperCfg.SetDefault("estimation.policy", PolicyDivergence)
	viperCfg.SetDefault("estimation.entropy_threshold", 0.0)
	viperCfg.SetDefault("estimation.parallel", false)

	viperCfg.SetDefault("workload.windows", DefaultWindows)
	viperCfg.SetDefault("workload.window_size", DefaultWindowSize)
	viperCfg.SetDefault("workload.keys", DefaultKeys)
	viperCfg.SetDefault("workload.distribution", DefaultDistribution)
	viperCfg.SetDefault("workload.seed", DefaultSeed)
	viperCfg.SetDefault("workload.drift", 0.0)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.log_json", false)
	viperCfg.SetDefault("observability.metrics_addr", "")
}
