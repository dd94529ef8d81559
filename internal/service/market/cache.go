package market

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dgraph-io/ristretto"

	"perpology/internal/redis"
)

// snapshotCache is the best-effort, time-boxed read cache in front of the
// upstream feeds: a ristretto in-process tier plus an optional redis shared
// tier. Concurrent misses on the same key may each hit upstream; that is
// acceptable for this data.
type snapshotCache struct {
	local  *ristretto.Cache
	shared *redis.Client
	ttl    time.Duration
}

func newSnapshotCache(shared *redis.Client, ttl time.Duration) (*snapshotCache, error) {
	local, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 22, // 4 MiB of serialized snapshots
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &snapshotCache{local: local, shared: shared, ttl: ttl}, nil
}

// get loads key into out, trying the local tier first, then redis. A shared
// hit repopulates the local tier.
func (c *snapshotCache) get(ctx context.Context, key string, out interface{}) bool {
	if raw, ok := c.local.Get(key); ok {
		if data, ok := raw.([]byte); ok {
			if err := json.Unmarshal(data, out); err == nil {
				return true
			}
		}
	}
	if c.shared == nil {
		return false
	}
	data, err := c.shared.Get(ctx, key)
	if err != nil {
		if err != redis.ErrCacheMiss {
			log.Printf("market cache: shared get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false
	}
	c.local.SetWithTTL(key, []byte(data), int64(len(data)), c.ttl)
	return true
}

func (c *snapshotCache) put(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.local.SetWithTTL(key, data, int64(len(data)), c.ttl)
	if c.shared != nil {
		if err := c.shared.Set(ctx, key, string(data), c.ttl); err != nil {
			log.Printf("market cache: shared set %s: %v", key, err)
		}
	}
}
