// Package config loads the application configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"psx_backend/internal/feature/alert/adapters/email"
	"psx_backend/internal/feature/assistant/adapters/gemini"
	"psx_backend/internal/platform/externalapi/jsonfeed"
	"psx_backend/internal/platform/externalapi/tradingview"
	"psx_backend/internal/platform/externalapi/twelvedata"
	"psx_backend/internal/shared/thresholds"
)

// EnvConfigPath names the variable holding the YAML file path.
const EnvConfigPath = "PSX_CONFIG"

// DefaultPath is read when PSX_CONFIG is unset. A missing file is not an error.
const DefaultPath = "config.yaml"

// History providers.
const (
	ProviderTwelveData = "twelvedata"
	ProviderJSONFeed   = "jsonfeed"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full application configuration. Components receive the section they need by value.
type Config struct {
	Server      ServerConfig          `yaml:"server"`
	Log         LogConfig             `yaml:"log"`
	Database    DatabaseConfig        `yaml:"database"`
	Redis       RedisConfig           `yaml:"redis"`
	TradingView tradingview.Config    `yaml:"tradingview"`
	TwelveData  twelvedata.Config     `yaml:"twelvedata"`
	History     HistoryConfig         `yaml:"history"`
	Gemini      gemini.Config         `yaml:"gemini"`
	Email       email.Config          `yaml:"email"`
	Auth        AuthConfig            `yaml:"auth"`
	Thresholds  thresholds.Thresholds `yaml:"thresholds"`
	Analysis    AnalysisConfig        `yaml:"analysis"`
	Digest      DigestConfig          `yaml:"digest"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type DatabaseConfig struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	RunMigrations bool   `yaml:"run_migrations"`
}

// RedisConfig configures the optional cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	QuoteTTL time.Duration `yaml:"quote_ttl"`
}

// HistoryConfig selects the daily history provider. Feed is used only by the jsonfeed provider.
type HistoryConfig struct {
	Provider string          `yaml:"provider"`
	Feed     jsonfeed.Config `yaml:",inline"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type AnalysisConfig struct {
	HistoryPoints  int `yaml:"history_points"`
	MaxConcurrency int `yaml:"max_concurrency"`
}

// DigestConfig drives the scheduled portfolio email.
type DigestConfig struct {
	Cron          string         `yaml:"cron"`
	Timezone      string         `yaml:"timezone"`
	Subscriptions []Subscription `yaml:"subscriptions"`
}

// Subscription is one recipient with the portfolio and alert rules evaluated for them.
type Subscription struct {
	Email    string    `yaml:"email"`
	Holdings []Holding `yaml:"holdings"`
	Rules    []Rule    `yaml:"rules"`
}

type Holding struct {
	Symbol   string          `yaml:"symbol"`
	Quantity decimal.Decimal `yaml:"quantity"`
	BuyPrice decimal.Decimal `yaml:"buy_price"`
}

type Rule struct {
	Symbol    string  `yaml:"symbol"`
	AlertType string  `yaml:"alert_type"`
	Condition string  `yaml:"condition"`
	Threshold float64 `yaml:"threshold"`
}

// Default returns a configuration that runs locally with sqlite, no cache and the log notifier.
func Default() Config {
	return Config{
		Server:      ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Log:         LogConfig{Level: "info", Format: "json"},
		Database:    DatabaseConfig{Driver: DriverSQLite, DSN: "psx.db", RunMigrations: true},
		Redis:       RedisConfig{QuoteTTL: time.Minute},
		TradingView: tradingview.DefaultConfig(),
		TwelveData:  twelvedata.DefaultConfig(),
		History:     HistoryConfig{Provider: ProviderTwelveData, Feed: jsonfeed.DefaultConfig()},
		Gemini:      gemini.Config{Model: gemini.DefaultModel},
		Email:       email.DefaultConfig(),
		Auth:        AuthConfig{TokenTTL: 24 * time.Hour},
		Thresholds:  thresholds.Default(),
		Analysis:    AnalysisConfig{HistoryPoints: 120, MaxConcurrency: 8},
		Digest:      DigestConfig{Cron: "0 16 * * 1-5", Timezone: "Asia/Karachi"},
	}
}

// Load reads the YAML file named by PSX_CONFIG (or config.yaml), applies environment overrides and validates.
func Load() (Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit path.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.fillDerived()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides secrets and deployment-specific values from the environment.
func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "PSX_ADDR")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PSX_ADDR") == "" {
		cfg.Server.Addr = ":" + port
	}
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_MIGRATIONS: %w", err)
		}
		cfg.Database.RunMigrations = b
	}

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	if host := os.Getenv("REDIS_HOST"); host != "" && os.Getenv("REDIS_ADDR") == "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		cfg.Redis.Addr = host + ":" + port
	}
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.TwelveData.APIKey, "TWELVE_DATA_API_KEY")
	setString(&cfg.TwelveData.BaseURL, "TWELVE_DATA_BASE_URL")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Email.APIKey, "RESEND_API_KEY")
	setString(&cfg.Email.From, "EMAIL_FROM")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// fillDerived resolves values that depend on other settings.
func (c *Config) fillDerived() {
	if c.Email.Provider == "" {
		c.Email.Provider = email.ProviderLog
		if c.Email.APIKey != "" {
			c.Email.Provider = email.ProviderResend
		}
	}
	if c.Redis.QuoteTTL <= 0 {
		c.Redis.QuoteTTL = time.Minute
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch c.History.Provider {
	case ProviderTwelveData:
	case ProviderJSONFeed:
		if c.History.Feed.URLTemplate == "" || c.History.Feed.ClosesPath == "" {
			return errors.New("history.url_template and history.closes_path are required for the jsonfeed provider")
		}
	default:
		return fmt.Errorf("history.provider must be twelvedata or jsonfeed, got %q", c.History.Provider)
	}
	switch c.Email.Provider {
	case email.ProviderLog:
	case email.ProviderResend:
		if c.Email.APIKey == "" || c.Email.From == "" {
			return errors.New("email.api_key and email.from are required for the resend provider")
		}
	default:
		return fmt.Errorf("email.provider must be resend or log, got %q", c.Email.Provider)
	}
	if c.Analysis.HistoryPoints < 35 {
		return fmt.Errorf("analysis.history_points must be at least 35, got %d", c.Analysis.HistoryPoints)
	}
	if c.Analysis.MaxConcurrency < 1 {
		return errors.New("analysis.max_concurrency must be positive")
	}
	for i, s := range c.Digest.Subscriptions {
		if s.Email == "" {
			return fmt.Errorf("digest.subscriptions[%d].email is required", i)
		}
		if len(s.Holdings) == 0 {
			return fmt.Errorf("digest.subscriptions[%d] has no holdings", i)
		}
	}
	return nil
}
