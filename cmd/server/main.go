package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"psx_backend/internal/app/di"
	"psx_backend/internal/app/router"
	alerthandler "psx_backend/internal/feature/alert/transport/handler"
	assistanthandler "psx_backend/internal/feature/assistant/transport/handler"
	markethandler "psx_backend/internal/feature/market/transport/handler"
	portfoliohandler "psx_backend/internal/feature/portfolio/transport/handler"
	"psx_backend/internal/platform/config"
	platformhandler "psx_backend/internal/platform/http/handler"
	"psx_backend/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logger.New(cfg.Log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	// JWT_SECRETチェック（未設定の場合メール送信エンドポイントは500を返す）
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. /api/v1/email/send-update will reject every request.")
	}

	checks := []platformhandler.Check{{
		Name:     "db",
		Required: true,
		Ping: func(ctx context.Context) error {
			sqlDB, err := app.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if app.Redis != nil {
		checks = append(checks, platformhandler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() },
		})
	}

	// ルータ生成
	engine := router.NewRouter(router.Handlers{
		Market:    markethandler.NewMarketHandler(app.Market, app.History),
		Portfolio: portfoliohandler.NewPortfolioHandler(app.Portfolio),
		Alert:     alerthandler.NewAlertHandler(app.Alerts),
		Assistant: assistanthandler.NewAssistantHandler(app.Assistant),
	}, router.Options{
		Server:    cfg.Server,
		JWTSecret: cfg.Auth.JWTSecret,
		Metrics:   app.Metrics,
		Health:    checks,
	})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: engine}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
