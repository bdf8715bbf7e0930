package service

import (
	"context"
	"time"

	"IntraCast/internal/domain/models"
)

// BarSource supplies raw OHLCV bars for a symbol at a fixed interval,
// ordered by timestamp ascending. Returns models.ErrNoData when the
// source has nothing for the requested window.
type BarSource interface {
	Fetch(ctx context.Context, symbol string, interval time.Duration, lookback time.Duration) ([]models.Bar, error)
}

// PricePredictor maps one feature vector to a predicted next-bar close.
// Stateless and deterministic for a fixed loaded model.
type PricePredictor interface {
	PredictPrice(ctx context.Context, v models.FeatureVector) (float64, error)
}

// DirectionClassifier maps one feature vector to P(next close > current close).
type DirectionClassifier interface {
	ProbabilityUp(ctx context.Context, v models.FeatureVector) (float64, error)
}

// SignalPublisher fans a persisted signal out to downstream consumers.
// Advisory: publish failures do not fail the tick.
type SignalPublisher interface {
	Publish(ctx context.Context, s models.Signal) error
	Close() error
}

// Calendar gates pipeline execution on trading hours.
type Calendar interface {
	IsOpen(t time.Time) bool
}
