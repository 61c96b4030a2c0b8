// Package ratelimiter は外部APIへのリクエスト頻度を制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiter はトークンバケット方式で呼び出し頻度を制限します。
type RateLimiter struct {
	name    string
	limiter *rate.Limiter
}

// NewRateLimiter は interval あたり limit 回まで許可する RateLimiter を生成します。
// limit が 0 以下の場合は無制限になります。
func NewRateLimiter(name string, limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{name: name, limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{name: name, limiter: rate.NewLimiter(every, limit)}
}

// Wait は次の呼び出しが許可されるまで待機します。ctx がキャンセルされた場合はエラーを返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	slog.Debug("rate limit reached, waiting", "limiter", rl.name, "delay", delay)
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
