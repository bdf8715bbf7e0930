package models

import "time"

// FeatureNames is the fixed model-input column order. The predictors were
// fitted against exactly this ordering; inference must reproduce it.
var FeatureNames = []string{
	"Close",
	"EMA_9",
	"EMA_21",
	"RSI",
	"MACD",
	"MACD_SIGNAL",
	"ATR",
	"Volatility",
	"return_1",
	"return_3",
	"return_5",
	"momentum_5",
}

// FeatureCount is the width of a feature vector.
const FeatureCount = 12

// FeatureVector is one complete row of model inputs, ordered per FeatureNames.
type FeatureVector struct {
	Timestamp time.Time
	Values    [FeatureCount]float64
}

// Close returns the raw close the vector was built from.
func (v FeatureVector) Close() float64 { return v.Values[0] }

// Volatility returns the rolling-std volatility feature, in price units.
func (v FeatureVector) Volatility() float64 { return v.Values[7] }

// TrainingRow pairs a feature vector with its supervised targets: the next
// bar's close and whether the next close exceeded the current one.
type TrainingRow struct {
	Features  FeatureVector
	NextClose float64
	Up        bool
}
