package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outofforest/logger"

	"github.com/forgecore/engine/gfx"
	"github.com/forgecore/engine/resource"
	"github.com/forgecore/engine/resource/source"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "textures <dir> <image...>",
		Short: "Load images into headless texture array",
		Long: `The textures command decodes images and stores them in the texture array of headless engine,
printing the layer assigned to every image. Images not matching dimensions of the first one are rejected.

Example:
  forge textures resources textures/wall.png textures/floor.png`,
		Args: cobra.MinimumNArgs(2),
		RunE: runTextures,
	})
}

func runTextures(cmd *cobra.Command, args []string) error {
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

	cache := resource.New(resource.Config{
		BudgetBytes: cfg.BudgetBytes,
		Source:      src,
		Logger:      log,
	})

	recorder := gfx.NewRecorder()
	engine := gfx.NewEngine(gfx.Config{
		Backend:     recorder,
		Logger:      log,
		PointLights: cfg.PointLights,
		SpotLights:  cfg.SpotLights,
	})
	c, err := engine.Claim()
	if err != nil {
		return err
	}
	defer c.Relinquish()

	out := cmd.OutOrStdout()
	textures := []*gfx.Texture{}
	defer func() {
		for _, t := range textures {
			t.Release()
		}
	}()
	for _, name := range args[1:] {
		t, err := c.LoadImage(cache, name)
		if err != nil {
			return err
		}
		if t == nil {
			fmt.Fprintf(out, "%s: rejected\n", name)
			continue
		}
		textures = append(textures, t)
		fmt.Fprintf(out, "%s: layer %d\n", name, t.Index())
	}

	if err := c.BindTextureArray(); err != nil {
		return err
	}
	for _, call := range recorder.Calls() {
		if call.Op == gfx.OpUploadTextureArray {
			fmt.Fprintf(out, "texture array %dx%d, %d layers, %d bytes\n", call.Width, call.Height, call.Layers,
				len(call.Data))
		}
	}
	return nil
}
