// Package tradingview provides a quote source backed by the TradingView market scanner.
package tradingview

import "time"

// Config holds configuration for the scanner client.
type Config struct {
	BaseURL   string        `yaml:"base_url"`   // e.g., "https://scanner.tradingview.com"
	Market    string        `yaml:"market"`     // scanner market name, "pakistan" for PSX
	Timeout   time.Duration `yaml:"timeout"`    // HTTP request timeout
	ScanLimit int           `yaml:"scan_limit"` // rows requested for a whole-market scan
	PerMinute int           `yaml:"per_minute"` // client-side request budget, 0 disables limiting
}

// DefaultConfig returns the public scanner settings for PSX.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://scanner.tradingview.com",
		Market:    "pakistan",
		Timeout:   10 * time.Second,
		ScanLimit: 1000,
		PerMinute: 60,
	}
}
