package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outofforest/logger"

	"github.com/forgecore/engine/resource/source"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "ls [dir]",
		Short: "List resources provided by the directory",
		Long: `The ls command merges all the sources found in the directory, the same way the engine does,
and prints names and sizes of the resources.

Example:
  forge ls resources`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLs,
	})
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.ResourceDir = args[0]
	}

	src := source.NewMaster(cfg.ResourceDir, logger.Get(ctx))
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	var total uint64
	for i := range src.Count() {
		name := src.NameAt(i)
		size := src.Size(name)
		total += size
		fmt.Fprintf(cmd.OutOrStdout(), "%10d  %s\n", size, name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d resources, %d bytes, %d sources\n", src.Count(), total, src.Sources())
	return nil
}
