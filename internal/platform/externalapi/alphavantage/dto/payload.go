// Package dto defines data transfer objects for Alpha Vantage API responses.
package dto

// RawPayload carries the raw time-series portion of an Alpha Vantage
// response: a mapping of date/datetime strings to field-name/value pairs.
// Field names are provider-specific (e.g. "1. open", "4a. close (USD)")
// and are mapped to canonical columns by the normalizer.
type RawPayload struct {
	Series map[string]map[string]string
}

// TopMoversPayload represents the TOP_GAINERS_LOSERS response.
// All numeric fields arrive as strings.
type TopMoversPayload struct {
	Metadata   string  `json:"metadata"`
	TopGainers []Mover `json:"top_gainers"`
	TopLosers  []Mover `json:"top_losers"`
}

// Mover is one raw gainer/loser record.
type Mover struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
}
