// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"psx_backend/internal/api"
)

// checkTimeout は依存先1つあたりの確認時間の上限です。
const checkTimeout = 2 * time.Second

// Check は依存先（DB、Redisなど）の疎通を確認します。
type Check struct {
	Name string
	// Required が false の依存先は失敗しても degraded として200を返す
	Required bool
	Ping     func(ctx context.Context) error
}

// Health はサービスヘルスチェック用の /healthz ハンドラーを返します。
// 必須の依存先が失敗した場合は503を返します。キャッシュは常に無効化します。
func Health(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodHead:
			c.Status(http.StatusOK)
			return
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
			return
		}

		resp := api.HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			err := chk.Ping(ctx)
			cancel()
			if err == nil {
				resp.Checks[chk.Name] = "ok"
				continue
			}
			resp.Checks[chk.Name] = err.Error()
			if chk.Required {
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
			} else if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		}
		c.JSON(code, resp)
	}
}
