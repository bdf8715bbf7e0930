package models

import "time"

// Direction of the predicted next-bar move.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// Volatility regime classes.
const (
	VolatilityLow    = "LOW"
	VolatilityMedium = "MEDIUM"
	VolatilityHigh   = "HIGH"
)

// Trade actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Signal is one decision output. Signals are immutable once persisted;
// the store appends one row per pipeline tick.
type Signal struct {
	Timestamp             time.Time `json:"timestamp"`
	Symbol                string    `json:"symbol"`
	CurrentPrice          float64   `json:"current_price"`
	PredictedPrice        float64   `json:"predicted_price"`
	ExpectedReturnPercent float64   `json:"expected_return_percent"`
	Direction             string    `json:"direction"`
	ProbabilityUp         float64   `json:"probability_up"`
	VolatilityClass       string    `json:"volatility_class"`
	ConfidenceScore       float64   `json:"confidence_score"`
	TradeAction           string    `json:"trade_action"`
}
