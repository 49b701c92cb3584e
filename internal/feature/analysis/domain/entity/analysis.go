package entity

import "time"

// Result is the score bundle produced by one analysis pass. It is immutable
// and derived 1:1 from the table it was computed on. A zero Result doubles
// as the placeholder stored by cache-population writes before real analysis
// runs.
type Result struct {
	Score      float64 `json:"score"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	EMAShort   float64 `json:"ema_short"`
	EMALong    float64 `json:"ema_long"`
	RSI        float64 `json:"rsi"`
}

// Record is one persisted analysis row.
type Record struct {
	Symbol         string
	Timestamp      time.Time
	Result         Result
	AlertTriggered bool
}
