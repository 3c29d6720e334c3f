package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outofforest/logger"

	"github.com/forgecore/engine/memtrack"
	"github.com/forgecore/engine/resource"
	"github.com/forgecore/engine/resource/source"
)

var loadAll bool

func init() {
	cmd := &cobra.Command{
		Use:   "load <dir> [name...]",
		Short: "Load resources through the cache",
		Long: `The load command loads resources through the budgeted cache, in the given order, and prints
the resources left in the cache, the most recently used first, together with cache counters.

Example:
  forge load resources shaders/basic.vert textures/wall.png
  forge load resources --all --budget 1048576`,
		Args: cobra.MinimumNArgs(1),
		RunE: runLoad,
	}
	cmd.Flags().BoolVar(&loadAll, "all", false, "Load all the resources using parallel workers")
	rootCmd.AddCommand(cmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	log := logger.Get(ctx)

	src := source.NewMaster(args[0], log)
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	tracker := memtrack.NewTracker(memtrack.Config{Logger: log})
	cache := resource.New(resource.Config{
		BudgetBytes: cfg.BudgetBytes,
		Source:      src,
		Allocator:   tracker,
		Logger:      log,
	})
	cache.RegisterProcessor(resource.StringProcessor{})

	if loadAll {
		if err := cache.PreloadAll(ctx, src.Names(), cfg.Workers); err != nil {
			return err
		}
	}
	for _, name := range args[1:] {
		if err := cache.Preload(name); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, name := range cache.Queue() {
		fmt.Fprintln(out, name)
	}
	stats := cache.Stats()
	fmt.Fprintf(out, "used %d of %d bytes, hits %d, misses %d, evictions %d, overruns %d\n",
		cache.UsedBytes(), cache.BudgetBytes(), stats.Hits, stats.Misses, stats.Evictions, stats.Overruns)

	cache.Flush()
	tracker.LogLeaks()
	return nil
}
