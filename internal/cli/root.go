// Package cli implements the tpool command: a driver that exercises the
// worker pool with synthetic workloads.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/utkarsh5026/tpool/internal/config"
	"github.com/utkarsh5026/tpool/internal/logging"
)

var (
	bold  = color.New(color.Bold)
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
)

// Execute runs the root command and exits the process on failure.
// SIGINT and SIGTERM cancel the command context: commands stop submitting,
// and the pool drains what it already accepted before exiting.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		_, _ = red.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var configPath string
	defaults := config.Default()

	root := &cobra.Command{
		Use:           "tpool",
		Short:         "Drive a bounded worker pool with synthetic workloads",
		Long:          `tpool runs square, cpu or sleep workloads through a fixed-size worker pool, reports outcomes and throughput, and compares worker counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().String(config.FlagName("log_level"), defaults.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().String(config.FlagName("log_format"), defaults.LogFormat, "Log format (json, console)")

	load := func(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
		cfg, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return nil, nil, err
		}
		logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger, nil
	}

	root.AddCommand(
		newRunCommand(load),
		newBenchCommand(load),
		newConfigCommand(load),
	)
	return root
}

type loader func(cmd *cobra.Command) (*config.Config, *zap.Logger, error)

// addPoolFlags registers the flags shared by every command that builds a
// pool. Their names mirror the configuration keys.
func addPoolFlags(fs *pflag.FlagSet) {
	d := config.Default()

	fs.Int(config.FlagName("workers"), d.Workers, "Number of pool workers")
	fs.Int(config.FlagName("tasks"), d.Tasks, "Number of tasks to submit")
	fs.String(config.FlagName("workload"), d.Workload, "Workload: square, cpu or sleep")
	fs.Duration(config.FlagName("task_duration"), d.TaskDuration, "Duration of one cpu or sleep task")
	fs.Float64(config.FlagName("failure_rate"), d.FailureRate, "Fraction of tasks (0..1) that divide by zero")
	fs.Float64(config.FlagName("rate_limit"), d.RateLimit, "Maximum task starts per second (0 = unlimited)")
	fs.Int(config.FlagName("burst"), d.Burst, "Rate limiter burst")
	fs.Int(config.FlagName("max_attempts"), d.MaxAttempts, "Attempts per failing task")
	fs.Duration(config.FlagName("retry_delay"), d.RetryDelay, "Initial delay between attempts")
	fs.Bool(config.FlagName("pin_workers"), d.PinWorkers, "Pin every worker to its own OS thread and CPU")
}

func printHeader(cmd *cobra.Command, format string, args ...any) {
	_, _ = bold.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
