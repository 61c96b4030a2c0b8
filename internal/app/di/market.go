// Package di provides dependency injection factories for creating application components.
package di

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	marketadapters "psx_backend/internal/feature/market/adapters"
	marketusecase "psx_backend/internal/feature/market/usecase"
	"psx_backend/internal/platform/cache"
	"psx_backend/internal/platform/config"
	"psx_backend/internal/platform/externalapi/jsonfeed"
	"psx_backend/internal/platform/externalapi/tradingview"
	"psx_backend/internal/platform/externalapi/twelvedata"
	infrahttp "psx_backend/internal/platform/http"
	"psx_backend/internal/shared/ratelimiter"
)

// NewQuoteSource creates the TradingView scanner wrapped in the redis quote cache.
func NewQuoteSource(cfg config.Config, rdb *redis.Client) marketusecase.QuoteSource {
	tv := cfg.TradingView
	limiter := ratelimiter.NewRateLimiter("tradingview", tv.PerMinute, time.Minute)
	scanner := tradingview.NewScanner(tv, infrahttp.NewHTTPClient(tv.Timeout), limiter)
	return cache.NewCachingQuoteSource(rdb, cfg.Redis.QuoteTTL, scanner, "quotes")
}

// NewHistorySource creates the configured daily history provider and its rate limiter.
func NewHistorySource(cfg config.Config) (marketusecase.MarketRepository, ratelimiter.RateLimiterInterface) {
	if cfg.History.Provider == config.ProviderJSONFeed {
		feed := cfg.History.Feed
		return jsonfeed.NewFeed(feed, infrahttp.NewHTTPClient(feed.Timeout)), nil
	}
	td := cfg.TwelveData
	limiter := ratelimiter.NewRateLimiter("twelvedata", td.PerMinute, time.Minute)
	return twelvedata.NewTwelveDataMarket(td, infrahttp.NewHTTPClient(td.Timeout)), limiter
}

// NewCandleRepository creates the gorm candle store behind the session-aligned redis cache.
// ttl 0 keeps entries until the next PSX session opens.
func NewCandleRepository(db *gorm.DB, rdb *redis.Client) marketusecase.CandleRepository {
	return cache.NewCachingCandleRepository(rdb, 0, marketadapters.NewCandleRepository(db), "candles")
}

// NewEmailClient creates the HTTP client used by the Resend notifier.
func NewEmailClient(cfg config.Config) *http.Client {
	return infrahttp.NewHTTPClient(cfg.Email.Timeout)
}
