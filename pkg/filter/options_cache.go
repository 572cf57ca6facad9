package filter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/matst80/jobboard/pkg/types"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// OptionsSource is the facet options endpoint of the backend.
type OptionsSource interface {
	FacetOptions(ctx context.Context, key types.FacetKey) ([]types.Option, error)
}

// Backend is the shared cache layer behind the local one.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(addr, password string, db int) *RedisBackend {
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

type localEntry struct {
	expires time.Time
	options []types.Option
}

// OptionsCache is the single read-through cache for facet options shared by every board.
// Lookups go local memory, then the backend (when set), then the source.
type OptionsCache struct {
	source     OptionsSource
	backend    Backend
	expiration time.Duration
	now        func() time.Time

	mu    sync.Mutex
	local map[types.FacetKey]localEntry
}

func NewOptionsCache(source OptionsSource, backend Backend, expiration time.Duration) *OptionsCache {
	if expiration <= 0 {
		expiration = 10 * time.Minute
	}
	return &OptionsCache{
		source:     source,
		backend:    backend,
		expiration: expiration,
		now:        time.Now,
		local:      make(map[types.FacetKey]localEntry),
	}
}

func cacheKey(key types.FacetKey) string {
	return fmt.Sprintf("jobboard:facet-options:%s", key)
}

func (c *OptionsCache) FacetOptions(ctx context.Context, key types.FacetKey) ([]types.Option, error) {
	c.mu.Lock()
	entry, found := c.local[key]
	if found && c.now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.options, nil
	}
	delete(c.local, key)
	c.mu.Unlock()

	if c.backend != nil {
		data, err := c.backend.Get(ctx, cacheKey(key))
		if err == nil {
			var options []types.Option
			if err = jsoncompat.Unmarshal(data, &options); err == nil {
				c.store(key, options)
				return options, nil
			}
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("facet options cache read failed for %s: %v", key, err)
		}
	}

	options, err := c.source.FacetOptions(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s options: %w", key, err)
	}
	c.store(key, options)
	if c.backend != nil {
		if data, err := jsoncompat.Marshal(options); err == nil {
			if err := c.backend.Set(ctx, cacheKey(key), data, c.expiration); err != nil {
				log.Printf("facet options cache write failed for %s: %v", key, err)
			}
		}
	}
	return options, nil
}

func (c *OptionsCache) Invalidate(key types.FacetKey) {
	c.mu.Lock()
	delete(c.local, key)
	c.mu.Unlock()
}

func (c *OptionsCache) store(key types.FacetKey, options []types.Option) {
	c.mu.Lock()
	c.local[key] = localEntry{expires: c.now().Add(c.expiration), options: options}
	c.mu.Unlock()
}
