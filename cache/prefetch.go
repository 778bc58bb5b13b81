package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

type flightGroup = singleflight.Group

// Loader fetches availability from the backing source for a cache key.
type Loader func(ctx context.Context, key Key) (Availability, error)

// Prefetch warms the cache for the given keys ahead of expected
// demand. Keys that are already fresh are skipped; concurrent fetches
// of the same key are collapsed into one loader call. A non-positive
// ttl uses the default. It returns the number of entries stored.
//
// Without a configured Loader, Prefetch does nothing.
func (c *AvailabilityCache) Prefetch(ctx context.Context, keys []Key, ttl time.Duration) int {
	if c.loader == nil {
		return 0
	}

	stored := 0
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		if _, ok := c.Get(key); ok {
			continue
		}

		key := key
		value, err, _ := c.flight.Do(key.String(), func() (any, error) {
			v, err := c.loader(ctx, key)
			if err != nil {
				return nil, err
			}
			return v, nil
		})
		if err != nil {
			continue
		}
		if c.SetTTL(key, value.(Availability), ttl) {
			stored++
		}
	}
	return stored
}
