package cli

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tpool/internal/config"
)

// benchResult aggregates the iterations run for one worker count.
type benchResult struct {
	Workers    int
	Median     time.Duration
	Throughput float64 // tasks/sec at the median
	Failed     int     // failures in the last iteration
	Rank       int
}

func newBenchCommand(load loader) *cobra.Command {
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare worker counts on the same workload",
		Long:  `bench runs the configured workload once per iteration for every worker count in the sweep, takes the median wall time and ranks the counts.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if len(cfg.Sweep) == 0 {
				return fmt.Errorf("bench: empty sweep")
			}

			printHeader(cmd, "Benchmarking %s workload: %d tasks, %d iteration(s) per worker count",
				cfg.Workload, cfg.Tasks, cfg.Iterations)

			var results []benchResult
			for _, workers := range cfg.Sweep {
				opts := runOptions{name: fmt.Sprintf("tpool-bench-%d", workers)}
				if showProgress {
					opts.progress = cmd.ErrOrStderr()
				}

				times := make([]time.Duration, 0, cfg.Iterations)
				var last runResult
				for range cfg.Iterations {
					if err := cmd.Context().Err(); err != nil {
						return fmt.Errorf("bench interrupted: %w", err)
					}
					res, err := runWorkload(cmd.Context(), cfg, workers, logger, opts)
					if err != nil {
						return err
					}
					times = append(times, res.Elapsed)
					last = res
				}

				m := median(times)
				br := benchResult{Workers: workers, Median: m, Failed: last.Failed}
				if m > 0 {
					br.Throughput = float64(last.Submitted) / m.Seconds()
				}
				results = append(results, br)
			}

			rank(results)
			printBenchTable(cmd.OutOrStdout(), results)
			return nil
		},
	}

	addPoolFlags(cmd.Flags())
	cmd.Flags().IntSlice(config.FlagName("sweep"), config.Default().Sweep, "Worker counts to compare")
	cmd.Flags().Int(config.FlagName("iterations"), config.Default().Iterations, "Runs per worker count; the median is reported")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show a progress bar for every run")

	return cmd
}

// median returns the middle value of ds, or the mean of the two middle
// values for an even count.
func median(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	s := slices.Clone(ds)
	slices.Sort(s)

	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// rank orders results by median time, fastest first, and numbers them.
func rank(results []benchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Median < results[j].Median
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

func printBenchTable(w io.Writer, results []benchResult) {
	if len(results) == 0 {
		return
	}
	fastest := results[0].Median

	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Workers", "Median", "Tasks/sec", "Failed", "vs Fastest")

	for _, r := range results {
		vs := "baseline"
		if r.Rank != 1 && fastest > 0 {
			vs = fmt.Sprintf("%.2fx", float64(r.Median)/float64(fastest))
		}

		_ = table.Append(
			fmt.Sprintf("%d", r.Rank),
			fmt.Sprintf("%d", r.Workers),
			r.Median.Round(time.Microsecond).String(),
			fmt.Sprintf("%.0f", r.Throughput),
			fmt.Sprintf("%d", r.Failed),
			vs,
		)
	}

	_ = table.Render()
}
