package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	alertadapters "psx_backend/internal/feature/alert/adapters"
	"psx_backend/internal/feature/alert/adapters/email"
	alerthandler "psx_backend/internal/feature/alert/transport/handler"
	alertusecase "psx_backend/internal/feature/alert/usecase"
	assistanthandler "psx_backend/internal/feature/assistant/transport/handler"
	assistantusecase "psx_backend/internal/feature/assistant/usecase"
	indicatorusecase "psx_backend/internal/feature/indicator/usecase"
	markethandler "psx_backend/internal/feature/market/transport/handler"
	marketusecase "psx_backend/internal/feature/market/usecase"
	portfoliohandler "psx_backend/internal/feature/portfolio/transport/handler"
	portfoliousecase "psx_backend/internal/feature/portfolio/usecase"
	"psx_backend/internal/platform/config"
	"psx_backend/internal/platform/db"
	"psx_backend/internal/platform/metrics"
	infraredis "psx_backend/internal/platform/redis"
)

// HistoryService serves stored daily history and refreshes it from the provider.
type HistoryService interface {
	markethandler.HistoryUsecase
	IngestAll(ctx context.Context, symbols []string) (int, error)
}

// App holds the wired usecases shared by the HTTP server and the CLI.
type App struct {
	Config  config.Config
	DB      *gorm.DB
	Redis   *redis.Client // nil when caching is disabled
	Metrics *metrics.Metrics

	Market    markethandler.MarketUsecase
	History   HistoryService
	Portfolio portfoliohandler.PortfolioUsecase
	Alerts    alerthandler.AlertUsecase
	Assistant assistanthandler.AssistantUsecase
}

// NewApp connects to storage and wires every feature from cfg.
// Redis is optional; any connection failure runs the app without a cache.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if !errors.Is(err, infraredis.ErrDisabled) {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		}
		rdb = nil
	}

	m := metrics.New("psx")

	// 市場データ
	quotes := NewQuoteSource(cfg, rdb)
	provider, limiter := NewHistorySource(cfg)
	history := marketusecase.NewHistoryUsecase(provider, NewCandleRepository(gdb, rdb), limiter, marketusecase.HistoryConfig{})
	indicators := indicatorusecase.NewIndicatorUsecase(history, cfg.Analysis.HistoryPoints)
	market := marketusecase.NewMarketUsecase(quotes, indicators, marketusecase.Config{
		Thresholds:     cfg.Thresholds,
		MaxConcurrency: cfg.Analysis.MaxConcurrency,
	})

	// ポートフォリオとアラート
	portfolio := portfoliousecase.NewPortfolioUsecase(quotes, indicators, portfoliousecase.Config{
		Thresholds:     cfg.Thresholds,
		MaxConcurrency: cfg.Analysis.MaxConcurrency,
	})
	alerts := alertusecase.NewAlertUsecase(
		portfolio,
		quotes,
		alertusecase.NewEvaluator(cfg.Thresholds),
		email.NewRenderer(),
		NewNotifier(cfg),
		alertadapters.NewAlertRepository(gdb),
		m,
	)

	// 自然言語クエリ
	classifier, fallback, writer := NewAssistantAdapters(ctx, cfg)
	assistant := assistantusecase.NewAssistantUsecase(classifier, fallback, writer, market, portfolio)

	return &App{
		Config:    cfg,
		DB:        gdb,
		Redis:     rdb,
		Metrics:   m,
		Market:    market,
		History:   history,
		Portfolio: portfolio,
		Alerts:    alerts,
		Assistant: assistant,
	}, nil
}

// Close releases the database and redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Error("Failed to close Redis client", "error", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}
}
