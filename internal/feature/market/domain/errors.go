package domain

import "errors"

// ErrSymbolNotFound is returned when the quote or history source has no data for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")
