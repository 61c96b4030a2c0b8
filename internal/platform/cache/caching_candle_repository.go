// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
)

// CachingCandleRepository decorates a CandleRepository with Redis caching.
// Daily bars only change after the next session opens, so by default entries
// live until then.
type CachingCandleRepository struct {
	inner     usecase.CandleRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ usecase.CandleRepository = (*CachingCandleRepository)(nil)

// NewCachingCandleRepository decorates a CandleRepository with Redis caching.
// If ttl is 0, entries expire at the next PSX session open. If namespace is empty, it uses "candles".
func NewCachingCandleRepository(rdb *redis.Client, ttl time.Duration, inner usecase.CandleRepository, namespace string) *CachingCandleRepository {
	if ttl < 0 {
		ttl = 0
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// UpsertBatch inserts or updates candles and invalidates related cache entries.
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Symbol, cd.Interval)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		if err := deleteByPattern(ctx, c.rdb, prefix+"*"); err != nil {
			slog.Warn("candle cache invalidation failed", "prefix", prefix, "error", err)
		}
	}
	return nil
}

// Find retrieves candles, checking cache first then falling back to the database.
func (c *CachingCandleRepository) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, interval, outputsize)
	}

	key := c.cacheKey(symbol, interval, outputsize)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Find(ctx, symbol, interval, outputsize)
	if err != nil {
		return nil, err
	}
	// 空の結果はキャッシュしない（取り込み前の銘柄を固定化しないため）
	if len(out) == 0 {
		return out, nil
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.expiry()).Err()
	}
	return out, nil
}

func (c *CachingCandleRepository) expiry() time.Duration {
	if c.ttl > 0 {
		return c.ttl
	}
	return TimeUntilNextSession(c.now())
}

func (c *CachingCandleRepository) cacheKey(symbol, interval string, outputsize int) string {
	return fmt.Sprintf("%s:%s:%s:%d", c.namespace, safe(domain.Ticker(symbol)), safe(interval), outputsize)
}

func (c *CachingCandleRepository) cacheKeyPrefix(symbol, interval string) string {
	return fmt.Sprintf("%s:%s:%s:", c.namespace, safe(domain.Ticker(symbol)), safe(interval))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func deleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
