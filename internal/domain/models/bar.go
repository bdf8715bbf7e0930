package models

import "time"

// Bar is one OHLCV observation at a timestamp in exchange-local time.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// IndicatorBar is a Bar enriched with trailing-window indicators.
// Indicator fields hold NaN until the bar has a full lookback window.
type IndicatorBar struct {
	Bar
	EMA9       float64 `json:"ema_9"`
	EMA21      float64 `json:"ema_21"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	ATR        float64 `json:"atr"`
	Volatility float64 `json:"volatility"`
}
