// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"psx_backend/internal/platform/config"
)

// New builds a logger from cfg writing to stderr and installs it as the slog default.
func New(cfg config.LogConfig) (*slog.Logger, error) {
	l, err := build(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

func build(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(orDefault(cfg.Level, "info")))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(orDefault(cfg.Format, "json")) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
