// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

// Config holds configuration for the Twelve Data API client.
type Config struct {
	APIKey    string        `yaml:"api_key"`    // API key for authentication
	BaseURL   string        `yaml:"base_url"`   // Base URL for the API (e.g., "https://api.twelvedata.com")
	Exchange  string        `yaml:"exchange"`   // Exchange code sent with every request (e.g., "PSX")
	Timeout   time.Duration `yaml:"timeout"`    // HTTP request timeout
	PerMinute int           `yaml:"per_minute"` // Request budget of the API plan
}

// DefaultConfig returns the public endpoint settings for PSX on the free plan.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://api.twelvedata.com",
		Exchange:  "PSX",
		Timeout:   10 * time.Second,
		PerMinute: 8,
	}
}
