package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/outofforest/logger"
)

var (
	configFile string
	budget     uint64
	workers    int
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Inspect engine resources",
	Long: `forge inspects resource directories the way the engine sees them: it lists merged
sources, loads resources through the budgeted cache, uploads images to a headless texture array
and reports allocations leaked by the tracking allocator.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to TOML config file")
	rootCmd.PersistentFlags().Uint64Var(&budget, "budget", 0, "Resource cache budget in bytes, overrides config")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of loading workers, overrides config")
}

func execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config, applies flag overrides and creates logger stored in the context.
func setup(cmd *cobra.Command) (context.Context, Config, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, Config{}, err
	}
	if cmd.Flags().Changed("budget") {
		cfg.BudgetBytes = budget
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}

	return logger.WithLogger(cmd.Context(), logger.New(logger.DefaultConfig)), cfg, nil
}
