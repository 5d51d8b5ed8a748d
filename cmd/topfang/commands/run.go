package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/Sumatoshi-tech/topfang/internal/config"
	"github.com/Sumatoshi-tech/topfang/internal/evaluation"
	"github.com/Sumatoshi-tech/topfang/internal/observability"
	"github.com/Sumatoshi-tech/topfang/internal/report"
	"github.com/Sumatoshi-tech/topfang/internal/streamio"
	"github.com/Sumatoshi-tech/topfang/pkg/topn"
)

// Method names accepted by --method.
const (
	MethodStatic   = "static"
	MethodAdaptive = "adaptive"
)

// metricsReadHeaderTimeout bounds header reads on the scrape endpoint.
const metricsReadHeaderTimeout = 10 * time.Second

// ErrUnknownMethod is returned for an unrecognised --method value.
var ErrUnknownMethod = errors.New("unknown method: use static or adaptive")

// runOptions holds the run command flags.
type runOptions struct {
	configFile  string
	manifest    string
	method      string
	plotOutput  string
	showWindows bool
	noColor     bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an estimation method over a stored dataset and score it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluation(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "config file path")
	flags.StringVarP(&opts.manifest, "manifest", "m", "", "dataset manifest path (required)")
	flags.StringVar(&opts.method, "method", MethodAdaptive, "estimation method: static or adaptive")
	flags.StringVar(&opts.plotOutput, "plot", "", "write actual-vs-estimated charts to this HTML file")
	flags.BoolVar(&opts.showWindows, "show-windows", false, "print per-window heavy-hitter tables")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runEvaluation(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := cfgpkg.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:  "topfang",
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		OTLPInsecure: cfg.Observability.OTLPInsecure,
		LogJSON:      cfg.Observability.LogJSON,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(ctx)
		if shutdownErr != nil {
			fmt.Fprintf(os.Stderr, "observability shutdown: %v\n", shutdownErr)
		}
	}()

	logger := commandLogger(cmd, cfg)

	ds, err := streamio.LoadDataset(opts.manifest)
	if err != nil {
		return err
	}

	meter := providers.Meter

	if cfg.Observability.MetricsAddr != "" {
		promMeter, handler, promErr := observability.PrometheusHandler()
		if promErr != nil {
			return promErr
		}

		meter = promMeter

		go serveMetrics(cfg.Observability.MetricsAddr, handler, logger)
	}

	windowMetrics, err := observability.NewWindowMetrics(meter)
	if err != nil {
		return fmt.Errorf("create window metrics: %w", err)
	}

	runner, err := buildRunner(opts.method, ds.Manifest.Partitions, cfg)
	if err != nil {
		return err
	}

	logger.Info("evaluating",
		"method", opts.method,
		"dataset", ds.Manifest.Name,
		"windows", len(ds.Windows),
		"n", cfg.Estimation.N,
		"m", ds.Manifest.Partitions,
	)

	reports := evaluation.Evaluate(ctx, runner, ds, evaluation.Options{
		N:                cfg.Estimation.N,
		EntropyThreshold: cfg.Estimation.EntropyThreshold,
		Parallel:         cfg.Estimation.Parallel,
		Logger:           logger,
		Metrics:          windowMetrics,
	})

	report.WriteSummary(os.Stdout, opts.method, reports, opts.noColor)

	if opts.showWindows {
		for _, r := range reports {
			if r.Err == nil && !r.Skipped {
				report.WriteHeavyHitters(os.Stdout, r, opts.noColor)
			}
		}
	}

	if opts.plotOutput != "" {
		plotErr := report.WritePlots(opts.plotOutput, opts.method, reports)
		if plotErr != nil {
			return plotErr
		}

		logger.Info("plots written", "path", opts.plotOutput)
	}

	return nil
}

// buildRunner constructs the requested method runner. The partition count
// comes from the dataset manifest; everything else from configuration.
func buildRunner(method string, partitions int, cfg *cfgpkg.Config) (topn.MethodRunner[string], error) {
	switch method {
	case MethodStatic:
		return topn.NewStaticRunner[string](partitions, cfg.Estimation.N)
	case MethodAdaptive:
		return topn.NewAdaptiveRunner[string](partitions, topn.ControllerConfig{
			N:      cfg.Estimation.N,
			Alpha:  cfg.Estimation.Alpha,
			QMin:   cfg.Estimation.QMin,
			QMax:   cfg.Estimation.QMax,
			Policy: topn.Policy(cfg.Estimation.Policy),
			R:      cfg.Estimation.R,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func serveMetrics(addr string, handler http.Handler, logger interface{ Error(string, ...any) }) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", "err", err)
	}
}
