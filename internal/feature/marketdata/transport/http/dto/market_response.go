// Package dto defines the JSON response shapes of the market data API.
package dto

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CandleResponse is one OHLCV row as served to clients.
type CandleResponse struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// CandlesResponse wraps a table with its staleness marker so clients can
// warn users when rate-limited fallback data is shown.
type CandlesResponse struct {
	Symbol  string           `json:"symbol"`
	Stale   bool             `json:"stale"`
	Candles []CandleResponse `json:"candles"`
}

// AnalysisResponse is the score bundle for one symbol.
type AnalysisResponse struct {
	Symbol     string  `json:"symbol"`
	Stale      bool    `json:"stale"`
	Score      float64 `json:"score"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	EMAShort   float64 `json:"ema_short"`
	EMALong    float64 `json:"ema_long"`
	RSI        float64 `json:"rsi"`
}

// MoverResponse is one top gainer/loser record.
type MoverResponse struct {
	Ticker           string  `json:"ticker"`
	Price            float64 `json:"price"`
	ChangeAmount     float64 `json:"change_amount"`
	ChangePercentage string  `json:"change_percentage"`
}

// MoversResponse carries both top movers lists.
type MoversResponse struct {
	TopGainers []MoverResponse `json:"top_gainers"`
	TopLosers  []MoverResponse `json:"top_losers"`
}
