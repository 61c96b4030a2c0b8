// Package redis builds the optional cache client.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"psx_backend/internal/platform/config"
)

// ErrDisabled is returned when no address is configured.
var ErrDisabled = errors.New("redis disabled")

// pingTimeout bounds the connectivity check at startup.
const pingTimeout = 3 * time.Second

// NewRedisClient connects and pings. Callers run without a cache on any error.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, ErrDisabled
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr, "error", err)
		if cerr := rdb.Close(); cerr != nil {
			slog.Warn("failed to close redis client", "error", cerr)
		}
		return nil, err
	}

	slog.Info("Redis connection successful", "address", cfg.Addr)
	return rdb, nil
}
