// Package domain holds the sentinel errors of the indicator feature.
package domain

import "errors"

// ErrInsufficientHistory marks an IndicatorSet that is missing fields because the price window was too short.
// It describes a partial result, not a failed computation.
var ErrInsufficientHistory = errors.New("insufficient price history")
