// Package commands implements CLI command handlers for topfang.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/Sumatoshi-tech/topfang/internal/config"
	"github.com/Sumatoshi-tech/topfang/internal/observability"
	"github.com/Sumatoshi-tech/topfang/internal/streamio"
	"github.com/Sumatoshi-tech/topfang/internal/workload"
)

// generateOptions holds the generate command flags.
type generateOptions struct {
	configFile   string
	outDir       string
	name         string
	windows      int
	windowSize   int64
	keys         int
	partitions   int
	topN         int
	distribution string
	seed         int64
	drift        float64
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic partitioned workload with ground truth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "config file path")
	flags.StringVarP(&opts.outDir, "out", "o", "data", "output directory")
	flags.StringVar(&opts.name, "name", "workload", "dataset name")
	flags.IntVar(&opts.windows, "windows", 0, "number of windows (overrides config)")
	flags.Int64Var(&opts.windowSize, "window-size", 0, "events per window (overrides config)")
	flags.IntVar(&opts.keys, "keys", 0, "key universe size (overrides config)")
	flags.IntVar(&opts.partitions, "partitions", 0, "worker partitions (overrides config)")
	flags.IntVar(&opts.topN, "top-n", 0, "top-n hint (overrides config)")
	flags.StringVar(&opts.distribution, "distribution", "", "zipfian|uniform|normal|flattened (overrides config)")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed (overrides config)")
	flags.Float64Var(&opts.drift, "drift", -1, "per-window key drift fraction (overrides config)")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := cfgpkg.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}

	applyGenerateOverrides(cmd, opts, cfg)

	logger := commandLogger(cmd, cfg)

	genOpts := workload.Options{
		Windows:       cfg.Workload.Windows,
		WindowSize:    cfg.Workload.WindowSize,
		Keys:          cfg.Workload.Keys,
		Partitions:    cfg.Estimation.M,
		TopN:          cfg.Estimation.N,
		Distribution:  cfg.Workload.Distribution,
		Seed:          cfg.Workload.Seed,
		DriftFraction: cfg.Workload.Drift,
	}

	logger.Info("generating workload",
		"distribution", genOpts.Distribution,
		"windows", genOpts.Windows,
		"window_size", genOpts.WindowSize,
		"keys", genOpts.Keys,
		"partitions", genOpts.Partitions,
		"seed", genOpts.Seed,
	)

	ds, err := workload.Generate(genOpts)
	if err != nil {
		return fmt.Errorf("generate workload: %w", err)
	}

	manifest := streamio.Manifest{
		Name:         opts.name,
		Distribution: genOpts.Distribution,
		Windows:      genOpts.Windows,
		WindowSize:   genOpts.WindowSize,
		Keys:         genOpts.Keys,
		Partitions:   genOpts.Partitions,
		TopN:         genOpts.TopN,
		Seed:         genOpts.Seed,
	}

	writeErr := streamio.WriteDataset(opts.outDir, manifest, ds)
	if writeErr != nil {
		return writeErr
	}

	logger.Info("dataset written",
		"dir", opts.outDir,
		"manifest", opts.name+streamio.ManifestSuffix,
	)

	return nil
}

func applyGenerateOverrides(cmd *cobra.Command, opts *generateOptions, cfg *cfgpkg.Config) {
	flags := cmd.Flags()

	if flags.Changed("windows") {
		cfg.Workload.Windows = opts.windows
	}

	if flags.Changed("window-size") {
		cfg.Workload.WindowSize = opts.windowSize
	}

	if flags.Changed("keys") {
		cfg.Workload.Keys = opts.keys
	}

	if flags.Changed("partitions") {
		cfg.Estimation.M = opts.partitions
	}

	if flags.Changed("top-n") {
		cfg.Estimation.N = opts.topN
	}

	if flags.Changed("distribution") {
		cfg.Workload.Distribution = opts.distribution
	}

	if flags.Changed("seed") {
		cfg.Workload.Seed = opts.seed
	}

	if flags.Changed("drift") {
		cfg.Workload.Drift = opts.drift
	}
}

// commandLogger builds the command's logger honouring --verbose and the
// configured format.
func commandLogger(cmd *cobra.Command, cfg *cfgpkg.Config) *slog.Logger {
	level := slog.LevelInfo

	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err == nil && verbose {
		level = slog.LevelDebug
	}

	return observability.NewLogger(level, cfg.Observability.LogJSON, os.Stderr)
}
