package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/utkarsh5026/tpool/internal/config"
	"github.com/utkarsh5026/tpool/pool"
)

// runResult is the outcome of one pass of a workload through a pool.
type runResult struct {
	Workers   int
	Submitted int
	OK        int
	Failed    int
	Panics    int
	Elapsed   time.Duration
}

// Throughput returns completed tasks per second.
func (r runResult) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.OK+r.Failed) / r.Elapsed.Seconds()
}

type runOptions struct {
	name     string
	progress io.Writer // nil disables the progress bar
	metrics  *pool.Metrics
}

func newRunCommand(load loader) *cobra.Command {
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a workload to a pool and report the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts := runOptions{name: "tpool-run"}
			if showProgress {
				opts.progress = cmd.ErrOrStderr()
			}

			if cfg.MetricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				opts.metrics = pool.NewMetrics(cfg.MetricsNamespace, "pool").MustRegister(reg)

				stop := serveMetrics(cfg.MetricsAddr, reg, logger)
				defer stop()
			}

			res, err := runWorkload(cmd.Context(), cfg, cfg.Workers, logger, opts)
			if err != nil {
				return err
			}

			printRunSummary(cmd, cfg, res)
			return nil
		},
	}

	addPoolFlags(cmd.Flags())
	cmd.Flags().String(config.FlagName("metrics_addr"), "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().String(config.FlagName("metrics_namespace"), config.Default().MetricsNamespace, "Prometheus metric namespace")
	cmd.Flags().BoolVar(&showProgress, "progress", true, "Show a progress bar while collecting results")

	return cmd
}

// runWorkload builds a pool with the given worker count, submits cfg.Tasks
// tasks and waits for every one of them. Submission stops early when ctx is
// cancelled; tasks already accepted still run.
func runWorkload(ctx context.Context, cfg *config.Config, workers int, logger *zap.Logger, opts runOptions) (runResult, error) {
	task, err := newWorkload(cfg)
	if err != nil {
		return runResult{}, err
	}

	p, err := pool.New(workers, cfg.PoolOptions(opts.name, logger, opts.metrics)...)
	if err != nil {
		return runResult{}, err
	}
	defer p.Shutdown()

	start := time.Now()
	futures := make([]*pool.Future[int], 0, cfg.Tasks)
	for n := range cfg.Tasks {
		if ctx.Err() != nil {
			logger.Warn("submission interrupted", zap.Int("submitted", n), zap.Int("requested", cfg.Tasks))
			break
		}
		f, err := pool.SubmitTask(p, task, n)
		if err != nil {
			return runResult{}, fmt.Errorf("submit task %d: %w", n, err)
		}
		futures = append(futures, f)
	}

	var bar *progressbar.ProgressBar
	if opts.progress != nil {
		bar = newProgressBar(opts.progress, len(futures), fmt.Sprintf("%d workers", workers))
	}

	res := runResult{Workers: workers, Submitted: len(futures)}
	for _, f := range futures {
		_, err := f.Get()
		switch {
		case err == nil:
			res.OK++
		case pool.IsPanic(err):
			res.Panics++
			res.Failed++
		default:
			res.Failed++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	p.Shutdown()
	res.Elapsed = time.Since(start)
	if bar != nil {
		_ = bar.Finish()
	}

	logger.Debug("workload finished",
		zap.Int("workers", workers),
		zap.Int("ok", res.OK),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func newProgressBar(w io.Writer, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// serveMetrics exposes reg on /metrics until the returned stop function is
// called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printRunSummary(cmd *cobra.Command, cfg *config.Config, res runResult) {
	w := cmd.OutOrStdout()

	printHeader(cmd, "Run summary")
	fmt.Fprintf(w, "  Workers:     %d\n", res.Workers)
	fmt.Fprintf(w, "  Workload:    %s\n", cfg.Workload)
	fmt.Fprintf(w, "  Submitted:   %d of %d\n", res.Submitted, cfg.Tasks)
	_, _ = green.Fprintf(w, "  Succeeded:   %d\n", res.OK)
	if res.Failed > 0 {
		_, _ = red.Fprintf(w, "  Failed:      %d (%d panics)\n", res.Failed, res.Panics)
	} else {
		fmt.Fprintf(w, "  Failed:      0\n")
	}
	fmt.Fprintf(w, "  Elapsed:     %s\n", res.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(w, "  Throughput:  %.0f tasks/sec\n", res.Throughput())
}
