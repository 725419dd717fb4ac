package confidence

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// BaselineCache memoises baseline averages for a short TTL.
type BaselineCache interface {
	Get(ctx context.Context, key string) (Baseline, bool)
	Set(ctx context.Context, key string, b Baseline)
}

// MemoryCache is an in-process cache for a single ticketd instance.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (Baseline, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return Baseline{}, false
	}
	b, ok := v.(Baseline)
	return b, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, b Baseline) {
	m.c.SetDefault(key, b)
}

// RedisCache shares baselines between the API and worker processes.
type RedisCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (r *RedisCache) Get(ctx context.Context, key string) (Baseline, bool) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("confidence.cache.get_error", "key", key, "err", err)
		}
		return Baseline{}, false
	}
	var b Baseline
	if err := json.Unmarshal(raw, &b); err != nil {
		return Baseline{}, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, b Baseline) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("confidence.cache.set_error", "key", key, "err", err)
	}
}
