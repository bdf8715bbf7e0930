package features

import (
	"math"

	"IntraCast/internal/domain/models"
)

// Lag windows for the derived return/momentum features.
const (
	Return1Lag   = 1
	Return3Lag   = 3
	Return5Lag   = 5
	MomentumLag  = 5
	momentumLags = MomentumLag // longest derived-feature lag
)

// DropIncomplete filters an enriched sequence down to rows whose indicator
// columns are all defined. NaN-drop order matters: derived returns are
// computed over this filtered sequence, exactly as at training time.
func DropIncomplete(bars []models.IndicatorBar) []models.IndicatorBar {
	out := make([]models.IndicatorBar, 0, len(bars))
	for _, b := range bars {
		if indicatorComplete(b) {
			out = append(out, b)
		}
	}
	return out
}

func indicatorComplete(b models.IndicatorBar) bool {
	for _, v := range []float64{b.EMA9, b.EMA21, b.RSI, b.MACD, b.MACDSignal, b.ATR, b.Volatility} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Build computes the feature matrix from an indicator-enriched bar
// sequence: lagged percentage returns over 1/3/5 bars, a 5-bar momentum,
// then every row with any undefined value dropped. Returns
// models.ErrInsufficientData when no complete row survives.
func Build(bars []models.IndicatorBar) ([]models.FeatureVector, error) {
	complete := DropIncomplete(bars)
	if len(complete) <= momentumLags {
		return nil, models.ErrInsufficientData
	}

	out := make([]models.FeatureVector, 0, len(complete)-momentumLags)
	for i := momentumLags; i < len(complete); i++ {
		b := complete[i]
		v := models.FeatureVector{Timestamp: b.Timestamp}
		v.Values = [models.FeatureCount]float64{
			b.Close,
			b.EMA9,
			b.EMA21,
			b.RSI,
			b.MACD,
			b.MACDSignal,
			b.ATR,
			b.Volatility,
			pctChange(complete, i, Return1Lag),
			pctChange(complete, i, Return3Lag),
			pctChange(complete, i, Return5Lag),
			b.Close - complete[i-MomentumLag].Close,
		}
		out = append(out, v)
	}
	return out, nil
}

// Latest returns the most recent complete feature vector for inference.
func Latest(bars []models.IndicatorBar) (models.FeatureVector, error) {
	vs, err := Build(bars)
	if err != nil {
		return models.FeatureVector{}, err
	}
	return vs[len(vs)-1], nil
}

// BuildTrainingSet pairs each feature row with a next-bar-close target and
// an up/down label. The final row has no next bar and is excluded.
func BuildTrainingSet(bars []models.IndicatorBar) ([]models.TrainingRow, error) {
	vs, err := Build(bars)
	if err != nil {
		return nil, err
	}
	if len(vs) < 2 {
		return nil, models.ErrInsufficientData
	}
	rows := make([]models.TrainingRow, 0, len(vs)-1)
	for i := 0; i < len(vs)-1; i++ {
		next := vs[i+1].Close()
		rows = append(rows, models.TrainingRow{
			Features:  vs[i],
			NextClose: next,
			Up:        next > vs[i].Close(),
		})
	}
	return rows, nil
}

func pctChange(bars []models.IndicatorBar, i, lag int) float64 {
	prev := bars[i-lag].Close
	return (bars[i].Close - prev) / prev
}
