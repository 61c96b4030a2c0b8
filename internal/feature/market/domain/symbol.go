// Package domain holds symbol rules and sentinel errors of the market feature.
package domain

import "strings"

// Exchange is the exchange prefix used for qualified symbols.
const Exchange = "PSX"

// NormalizeSymbol upper-cases a ticker and qualifies it with the exchange prefix.
// "shez", "SHEZ" and "psx:shez" all become "PSX:SHEZ".
// Input without a ticker, such as "" or a bare "psx:", yields "".
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	ticker := strings.TrimSpace(strings.TrimPrefix(s, Exchange+":"))
	if ticker == "" {
		return ""
	}
	return Exchange + ":" + ticker
}

// Ticker strips the exchange prefix: "PSX:SHEZ" becomes "SHEZ".
func Ticker(s string) string {
	s = NormalizeSymbol(s)
	return strings.TrimPrefix(s, Exchange+":")
}
