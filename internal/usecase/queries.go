package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"IntraCast/internal/domain/models"
	domrepo "IntraCast/internal/domain/repository"
	"IntraCast/pkg/cache"
)

// Queries is the read side: it never writes pipeline state. Readers are
// eventually consistent with the pipeline's bar swaps; a request landing
// mid-swap sees the previous bar set.
type Queries struct {
	bars           domrepo.BarStore
	signals        domrepo.SignalStore
	cache          cache.Service
	historicalTTL  time.Duration
	performanceTTL time.Duration
	periodsPerYear float64
}

// NewQueries builds the query service. interval and session size the
// annualization factor: periodsPerYear = 252 trading days times bars per
// session.
func NewQueries(bars domrepo.BarStore, signals domrepo.SignalStore, interval, session time.Duration) *Queries {
	return &Queries{
		bars:           bars,
		signals:        signals,
		periodsPerYear: PeriodsPerYear(interval, session),
	}
}

// WithCache attaches a response cache with per-endpoint TTLs.
func (q *Queries) WithCache(c cache.Service, historicalTTL, performanceTTL time.Duration) *Queries {
	q.cache = c
	q.historicalTTL = historicalTTL
	q.performanceTTL = performanceTTL
	return q
}

// PeriodsPerYear derives the annualization factor from the bar interval
// and the trading-session length.
func PeriodsPerYear(interval, session time.Duration) float64 {
	if interval <= 0 {
		return 252
	}
	barsPerSession := float64(session) / float64(interval)
	if barsPerSession < 1 {
		barsPerSession = 1
	}
	return 252 * barsPerSession
}

// Historical returns the last n persisted bars for a symbol, newest-last.
func (q *Queries) Historical(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	key := fmt.Sprintf("historical:%s:%d", symbol, n)
	if q.cache != nil {
		var cached []models.Bar
		if err := q.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	bars, err := q.bars.LatestN(ctx, symbol, n)
	if err != nil {
		return nil, err
	}

	if q.cache != nil {
		_ = q.cache.Set(ctx, key, bars, q.historicalTTL)
	}
	return bars, nil
}

// Signals returns the full persisted signal history in timestamp order.
func (q *Queries) Signals(ctx context.Context) ([]models.Signal, error) {
	return q.signals.List(ctx)
}

// Performance treats each signal's expected return as a realized per-tick
// return: cumulative sum over time plus an annualized Sharpe ratio. An
// empty store yields an empty report; zero return variance yields a zero
// Sharpe, never NaN.
func (q *Queries) Performance(ctx context.Context) (models.PerformanceReport, error) {
	const key = "performance"
	if q.cache != nil {
		var cached models.PerformanceReport
		if err := q.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	sigs, err := q.signals.List(ctx)
	if err != nil {
		return models.PerformanceReport{}, err
	}
	if len(sigs) == 0 {
		return models.PerformanceReport{}, nil
	}

	series := make([]models.PerformancePoint, 0, len(sigs))
	returns := make([]float64, 0, len(sigs))
	cum := 0.0
	for _, s := range sigs {
		cum += s.ExpectedReturnPercent
		returns = append(returns, s.ExpectedReturnPercent)
		series = append(series, models.PerformancePoint{
			Timestamp:     s.Timestamp,
			CumulativePnL: cum,
		})
	}

	report := models.PerformanceReport{
		Series:      series,
		SharpeRatio: round3(sharpe(returns, q.periodsPerYear)),
	}

	if q.cache != nil {
		_ = q.cache.Set(ctx, key, report, q.performanceTTL)
	}
	return report, nil
}

// sharpe computes mean(returns)/std(returns) * sqrt(periodsPerYear) with
// sample standard deviation. Zero variance maps to 0.
func sharpe(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(periodsPerYear)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
