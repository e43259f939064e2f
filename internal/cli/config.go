package cli

import (
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/tpool/internal/config"
)

func newConfigCommand(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long:  `config prints the configuration that run and bench would use after applying the config file, TPOOL_* environment variables and flags. The output is a valid --config file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load(cmd)
			if err != nil {
				return err
			}
			return cfg.Dump(cmd.OutOrStdout())
		},
	}

	addPoolFlags(cmd.Flags())
	cmd.Flags().String(config.FlagName("metrics_addr"), "", "Serve Prometheus metrics on this address")
	cmd.Flags().String(config.FlagName("metrics_namespace"), config.Default().MetricsNamespace, "Prometheus metric namespace")
	cmd.Flags().IntSlice(config.FlagName("sweep"), config.Default().Sweep, "Worker counts to compare")
	cmd.Flags().Int(config.FlagName("iterations"), config.Default().Iterations, "Runs per worker count")

	return cmd
}
