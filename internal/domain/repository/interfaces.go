package repository

import (
	"context"

	"IntraCast/internal/domain/models"
)

// BarStore owns persisted bars. Replace swaps the ENTIRE bar table
// atomically with the given rows, not just the named symbol's slice; any
// other symbol's rows are discarded by the swap. The engine tracks one
// symbol per deployment, so the symbol parameter tags the rows and
// scopes reads. Readers may observe the previous set until the swap
// lands, never a half-written one.
type BarStore interface {
	Init(ctx context.Context) error
	Replace(ctx context.Context, symbol string, bars []models.IndicatorBar) error
	LatestN(ctx context.Context, symbol string, n int) ([]models.Bar, error)
	LatestIndicatorBars(ctx context.Context, symbol string, n int) ([]models.IndicatorBar, error)
	Health(ctx context.Context) error
}

// SignalStore is append-only: one row per pipeline tick, never updated.
type SignalStore interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, s models.Signal) error
	List(ctx context.Context) ([]models.Signal, error)
}

// Metrics records pipeline and serving observations.
type Metrics interface {
	RecordTick(symbol, outcome string)
	RecordSignal(symbol, action string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordStageLatency(stage string, seconds float64)
}
