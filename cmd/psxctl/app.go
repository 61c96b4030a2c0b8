package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"

	"psx_backend/internal/app/di"
	"psx_backend/internal/platform/config"
	"psx_backend/internal/platform/logger"
)

// loadConfig reads the config named by -config, falling back to PSX_CONFIG.
// CLI logs are text on stderr so that stdout stays clean.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}
	cfg.Log.Format = "text"
	if _, err := logger.New(cfg.Log); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*di.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return di.NewApp(ctx, cfg)
}

// printMarkdown renders md for the terminal, or prints it as is when rendering fails.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(md)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
