package entity

import (
	"sort"
	"time"
)

// Quote is the latest market snapshot for a symbol.
type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	Open          float64
	High          float64
	Low           float64
	Volume        int64
	ChangePercent float64
	// RSI is the provider's own RSI column; only scans populate it.
	RSI       *float64
	Timestamp time.Time
}

// Change returns the absolute price change implied by ChangePercent.
func (q Quote) Change() float64 {
	if q.ChangePercent == -100 {
		return -q.Price
	}
	prev := q.Price / (1 + q.ChangePercent/100)
	return q.Price - prev
}

// Order is a ranking direction.
type Order int

const (
	// Descending ranks the largest percent change first (gainers).
	Descending Order = iota
	// Ascending ranks the smallest percent change first (losers).
	Ascending
)

// RankByChange stably sorts quotes by ChangePercent in the given order, breaking ties by symbol.
// The input slice is not modified.
func RankByChange(qs []Quote, order Order) []Quote {
	out := make([]Quote, len(qs))
	copy(out, qs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ChangePercent != b.ChangePercent {
			if order == Ascending {
				return a.ChangePercent < b.ChangePercent
			}
			return a.ChangePercent > b.ChangePercent
		}
		return a.Symbol < b.Symbol
	})
	return out
}

// RankByRSI stably sorts quotes that carry an RSI value, breaking ties by symbol.
// Quotes without RSI are dropped.
func RankByRSI(qs []Quote, order Order) []Quote {
	out := make([]Quote, 0, len(qs))
	for _, q := range qs {
		if q.RSI != nil {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].RSI, *out[j].RSI
		if a != b {
			if order == Ascending {
				return a < b
			}
			return a > b
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Head returns at most n leading quotes.
func Head(qs []Quote, n int) []Quote {
	if n < 0 {
		n = 0
	}
	if n > len(qs) {
		n = len(qs)
	}
	return qs[:n]
}
