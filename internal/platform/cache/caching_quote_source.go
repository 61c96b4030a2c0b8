package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"psx_backend/internal/feature/market/domain"
	"psx_backend/internal/feature/market/domain/entity"
	"psx_backend/internal/feature/market/usecase"
)

// DefaultQuoteTTL is how long a quote or market scan stays cached.
const DefaultQuoteTTL = time.Minute

// CachingQuoteSource decorates a QuoteSource with short-lived Redis caching.
// Errors from the inner source are never cached.
type CachingQuoteSource struct {
	inner     usecase.QuoteSource
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.QuoteSource = (*CachingQuoteSource)(nil)

// NewCachingQuoteSource wraps inner. If ttl is 0, it defaults to one minute. If namespace is empty, it uses "quotes".
func NewCachingQuoteSource(rdb *redis.Client, ttl time.Duration, inner usecase.QuoteSource, namespace string) *CachingQuoteSource {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &CachingQuoteSource{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

// Quote returns the cached quote for symbol or fetches it.
func (c *CachingQuoteSource) Quote(ctx context.Context, symbol string) (entity.Quote, error) {
	if c.rdb == nil {
		return c.inner.Quote(ctx, symbol)
	}
	key := c.namespace + ":" + safe(domain.Ticker(symbol))

	var q entity.Quote
	if c.get(ctx, key, &q) {
		return q, nil
	}
	q, err := c.inner.Quote(ctx, symbol)
	if err != nil {
		return entity.Quote{}, err
	}
	c.set(ctx, key, q)
	return q, nil
}

// Scan returns the cached market snapshot or fetches it.
func (c *CachingQuoteSource) Scan(ctx context.Context) ([]entity.Quote, error) {
	if c.rdb == nil {
		return c.inner.Scan(ctx)
	}
	key := c.namespace + ":_scan"

	var qs []entity.Quote
	if c.get(ctx, key, &qs) {
		return qs, nil
	}
	qs, err := c.inner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, qs)
	return qs, nil
}

func (c *CachingQuoteSource) get(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *CachingQuoteSource) set(ctx context.Context, key string, v any) {
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
}
