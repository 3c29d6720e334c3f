package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outofforest/logger"

	"github.com/forgecore/engine/memtrack"
	"github.com/forgecore/engine/resource"
	"github.com/forgecore/engine/resource/source"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "leaks <dir> <name...>",
		Short: "Report resources kept alive after cache flush",
		Long: `The leaks command loads resources through the cache backed by the tracking allocator, keeps
the handles of them, flushes the cache and prints the allocation report. Every handle still held shows up
in the report together with the place it was allocated from.

Example:
  forge leaks resources shaders/basic.vert`,
		Args: cobra.MinimumNArgs(2),
		RunE: runLeaks,
	})
}

func runLeaks(cmd *cobra.Command, args []string) error {
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

	handles := make([]*resource.Handle, 0, len(args)-1)
	for _, name := range args[1:] {
		h, err := cache.Handle(name)
		if err != nil {
			return err
		}
		handles = append(handles, h)
	}
	cache.Flush()

	out := cmd.OutOrStdout()
	fmt.Fprint(out, tracker.Report())

	for _, h := range handles {
		h.Release()
	}
	fmt.Fprint(out, tracker.Report())
	return nil
}
