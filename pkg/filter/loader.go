package filter

import (
	"context"

	"github.com/matst80/jobboard/pkg/types"
	"golang.org/x/sync/errgroup"
)

// LoadOptions fetches the option lists of the given facets concurrently and installs them.
// Nothing is installed when any list fails, so the store never mixes generations.
func LoadOptions(ctx context.Context, store *Store, source OptionsSource, keys ...types.FacetKey) error {
	if len(keys) == 0 {
		keys = types.FacetKeys
	}
	results := make([][]types.Option, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			options, err := source.FacetOptions(gctx, key)
			if err != nil {
				return err
			}
			results[i] = options
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, key := range keys {
		store.SetOptions(key, results[i])
	}
	return nil
}
