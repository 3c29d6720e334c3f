package resource

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/outofforest/parallel"
)

// PreloadAll loads resources into the cache using the specified number of workers.
func (c *Cache) PreloadAll(ctx context.Context, names []string, workers int) error {
	if workers < 1 {
		workers = 1
	}

	namesCh := make(chan string)
	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("feeder", parallel.Continue, func(ctx context.Context) error {
			defer close(namesCh)

			for _, name := range names {
				select {
				case <-ctx.Done():
					return errors.WithStack(ctx.Err())
				case namesCh <- name:
				}
			}
			return nil
		})
		for i := range workers {
			spawn(fmt.Sprintf("loader-%02d", i), parallel.Continue, func(ctx context.Context) error {
				for name := range namesCh {
					if err := c.Preload(name); err != nil {
						return err
					}
				}
				return nil
			})
		}
		return nil
	})
}
