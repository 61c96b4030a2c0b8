// Package entity defines the domain models for the market feature.
package entity

import "time"

// Candle represents a daily OHLCV bar for a PSX symbol.
type Candle struct {
	Symbol   string    // Exchange-qualified symbol (e.g., "PSX:SHEZ")
	Interval string    // Bar interval (e.g., "1day")
	Time     time.Time // Session date
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
}

// Closes extracts closing prices in the order given.
func Closes(cs []Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}
