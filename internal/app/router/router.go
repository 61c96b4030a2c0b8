// Package router builds the gin engine and maps routes to feature handlers.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	alerthandler "psx_backend/internal/feature/alert/transport/handler"
	assistanthandler "psx_backend/internal/feature/assistant/transport/handler"
	markethandler "psx_backend/internal/feature/market/transport/handler"
	portfoliohandler "psx_backend/internal/feature/portfolio/transport/handler"
	"psx_backend/internal/platform/config"
	platformhandler "psx_backend/internal/platform/http/handler"
	jwtmw "psx_backend/internal/platform/jwt"
)

// Handlers groups the feature handlers mounted under /api/v1.
type Handlers struct {
	Market    *markethandler.MarketHandler
	Portfolio *portfoliohandler.PortfolioHandler
	Alert     *alerthandler.AlertHandler
	Assistant *assistanthandler.AssistantHandler
}

// Options carries the cross-cutting pieces of the engine.
type Options struct {
	Server    config.ServerConfig
	JWTSecret string
	// Metrics is mounted at /metrics and wrapped around every route when set.
	Metrics interface {
		Middleware() gin.HandlerFunc
		Handler() http.Handler
	}
	Health []platformhandler.Check
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(opts.Server.CORSOrigins)))

	// 認証不要
	// 導通確認用
	health := platformhandler.Health(opts.Health...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	{
		stocks := v1.Group("/stocks")
		stocks.GET("/top-gainers", h.Market.TopGainers)
		stocks.GET("/top-losers", h.Market.TopLosers)
		stocks.GET("/oversold", h.Market.Oversold)
		stocks.GET("/overbought", h.Market.Overbought)
		stocks.POST("/current-prices", h.Market.CurrentPrices)
		stocks.GET("/:symbol", h.Market.Stock)
		stocks.GET("/:symbol/history", h.Market.History)

		v1.POST("/portfolio/analyze", h.Portfolio.Analyze)
		v1.POST("/query", h.Assistant.Query)
		v1.GET("/alerts/history", h.Alert.History)
	}

	// 認証必須のルート
	// メール送信は外部に副作用があるためオペレーターのJWTを要求する
	auth := v1.Group("/")
	auth.Use(jwtmw.AuthRequired(opts.JWTSecret))
	{
		auth.POST("/email/send-update", h.Alert.SendUpdate)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
