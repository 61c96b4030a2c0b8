// Package entity defines the domain models for the portfolio feature.
package entity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"psx_backend/internal/feature/portfolio/domain"
)

// Holding is one position as supplied by the caller.
type Holding struct {
	Symbol   string
	Quantity decimal.Decimal
	BuyPrice decimal.Decimal
}

// Validate rejects empty symbols and non-positive quantity or buy price.
func (h Holding) Validate() error {
	switch {
	case h.Symbol == "":
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidHolding)
	case !h.Quantity.IsPositive():
		return fmt.Errorf("%w: %s quantity must be positive, got %s", domain.ErrInvalidHolding, h.Symbol, h.Quantity)
	case !h.BuyPrice.IsPositive():
		return fmt.Errorf("%w: %s buy price must be positive, got %s", domain.ErrInvalidHolding, h.Symbol, h.BuyPrice)
	}
	return nil
}

// CostBasis is quantity times buy price.
func (h Holding) CostBasis() decimal.Decimal { return h.Quantity.Mul(h.BuyPrice) }
