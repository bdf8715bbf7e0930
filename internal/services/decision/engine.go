package decision

import (
	"math"
	"time"

	"IntraCast/internal/domain/models"
)

// Thresholds are the calibrated decision constants. They are injected from
// configuration so recalibration never needs a code change.
type Thresholds struct {
	BuyProbability  float64 // trade gate: P(up) above this
	SellProbability float64 // trade gate: P(up) below this
	BuyReturn       float64 // expected return percent above this
	SellReturn      float64 // expected return percent below this
	VolLow          float64 // rolling-std below this is LOW
	VolHigh         float64 // rolling-std at or above this is HIGH
	BlendWeight     float64 // model weight in the confidence blend
	BlendPrior      float64 // constant prior blended with the model probability
}

// DefaultThresholds are the values the deployed models were calibrated
// against. The volatility cut points are absolute price-unit deviations,
// not relative to price level; instruments on a different price scale need
// recalibration before these classes mean anything.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BuyProbability:  0.65,
		SellProbability: 0.35,
		BuyReturn:       0.15,
		SellReturn:      -0.15,
		VolLow:          15,
		VolHigh:         30,
		BlendWeight:     0.7,
		BlendPrior:      0.53,
	}
}

// Input carries everything the decision rule consumes.
type Input struct {
	Timestamp      time.Time
	Symbol         string
	CurrentPrice   float64
	PredictedPrice float64
	ProbabilityUp  float64
	Volatility     float64 // rolling-std of close, price units
}

// Engine converts predictor outputs into a trade signal. Pure function of
// its input and thresholds, no I/O.
type Engine struct {
	t Thresholds
}

func NewEngine(t Thresholds) *Engine {
	return &Engine{t: t}
}

// ClassifyVolatility buckets a rolling-std value into LOW/MEDIUM/HIGH.
func (e *Engine) ClassifyVolatility(vol float64) string {
	switch {
	case vol < e.t.VolLow:
		return models.VolatilityLow
	case vol < e.t.VolHigh:
		return models.VolatilityMedium
	default:
		return models.VolatilityHigh
	}
}

// Decide evaluates the rule in fixed order: expected return, volatility
// class, trade action, confidence. Direction is UP iff P(up) > 0.5; the
// boundary 0.5 is DOWN. HIGH volatility always forces HOLD.
func (e *Engine) Decide(in Input) models.Signal {
	expectedReturn := (in.PredictedPrice - in.CurrentPrice) / in.CurrentPrice * 100

	volClass := e.ClassifyVolatility(in.Volatility)

	direction := models.DirectionDown
	if in.ProbabilityUp > 0.5 {
		direction = models.DirectionUp
	}

	action := models.ActionHold
	switch {
	case in.ProbabilityUp > e.t.BuyProbability &&
		expectedReturn > e.t.BuyReturn &&
		volClass != models.VolatilityHigh:
		action = models.ActionBuy
	case in.ProbabilityUp < e.t.SellProbability &&
		expectedReturn < e.t.SellReturn &&
		volClass != models.VolatilityHigh:
		action = models.ActionSell
	}

	confidence := round2(in.ProbabilityUp*e.t.BlendWeight + (1-e.t.BlendWeight)*e.t.BlendPrior)

	return models.Signal{
		Timestamp:             in.Timestamp,
		Symbol:                in.Symbol,
		CurrentPrice:          in.CurrentPrice,
		PredictedPrice:        in.PredictedPrice,
		ExpectedReturnPercent: expectedReturn,
		Direction:             direction,
		ProbabilityUp:         in.ProbabilityUp,
		VolatilityClass:       volClass,
		ConfidenceScore:       confidence,
		TradeAction:           action,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
