// Package dto defines data transfer objects for the Twelve Data API responses.
package dto

// TimeSeriesResponse is the body of GET /time_series. On failure Status is "error"
// and Code/Message describe it.
type TimeSeriesResponse struct {
	Status  string     `json:"status"`
	Code    int        `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
	Meta    SeriesMeta `json:"meta"`
	Values  []Bar      `json:"values"`
}

type SeriesMeta struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
}

// Bar is one row of the series. Every number arrives as a string.
type Bar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}
