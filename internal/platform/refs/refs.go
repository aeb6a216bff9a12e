// Package refs resolves foreign-key references to the entities they point at.
package refs

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Fetcher loads one entity by key.
type Fetcher[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Resolve fetches every distinct key in keys concurrently and returns the
// results by key. The first failure cancels the remaining fetches and fails
// the whole resolution, so callers never see a partial map.
func Resolve[K comparable, V any](ctx context.Context, keys []K, fetch Fetcher[K, V]) (map[K]V, error) {
	distinct := Distinct(keys)
	out := make(map[K]V, len(distinct))
	if len(distinct) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range distinct {
		key := key
		g.Go(func() error {
			v, err := fetch(gctx, key)
			if err != nil {
				return fmt.Errorf("resolve %v: %w", key, err)
			}
			mu.Lock()
			out[key] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// One resolves a single key. It is Resolve for the common one-reference case.
func One[K comparable, V any](ctx context.Context, key K, fetch Fetcher[K, V]) (V, error) {
	v, err := fetch(ctx, key)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("resolve %v: %w", key, err)
	}
	return v, nil
}

// Distinct returns keys with duplicates removed, keeping first-seen order.
func Distinct[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Collect maps items to their keys, skipping zero keys (unset references).
func Collect[T any, K comparable](items []T, key func(T) K) []K {
	var zero K
	out := make([]K, 0, len(items))
	for _, it := range items {
		if k := key(it); k != zero {
			out = append(out, k)
		}
	}
	return Distinct(out)
}
