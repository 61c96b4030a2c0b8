// Package dto defines the TradingView scanner wire format.
package dto

// ScanRequest is the body posted to /{market}/scan.
type ScanRequest struct {
	Columns []string `json:"columns"`
	Range   [2]int   `json:"range"`
	Sort    *Sort    `json:"sort,omitempty"`
	Markets []string `json:"markets"`
	Symbols Symbols  `json:"symbols"`
}

// Sort orders scanner rows.
type Sort struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// Symbols restricts a scan to explicit tickers when Tickers is non-empty.
type Symbols struct {
	Query   SymbolQuery `json:"query"`
	Tickers []string    `json:"tickers,omitempty"`
}

// SymbolQuery filters by instrument type; empty means all.
type SymbolQuery struct {
	Types []string `json:"types"`
}

// ScanResponse is the scanner reply. Each row's D holds values in the order of the requested columns.
type ScanResponse struct {
	TotalCount int   `json:"totalCount"`
	Data       []Row `json:"data"`
}

// Row is one scanner result.
type Row struct {
	S string `json:"s"`
	D []any  `json:"d"`
}
