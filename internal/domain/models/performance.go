package models

import "time"

// PerformancePoint is one step of the cumulative P&L series.
type PerformancePoint struct {
	Timestamp     time.Time `json:"timestamp"`
	CumulativePnL float64   `json:"cumulative_pnl"`
}

// PerformanceReport aggregates signal history into a P&L curve and an
// annualized Sharpe ratio. Empty when no signals exist yet.
type PerformanceReport struct {
	Series      []PerformancePoint `json:"series"`
	SharpeRatio float64            `json:"sharpe_ratio"`
}

// Empty reports whether any signals contributed to the report.
func (r PerformanceReport) Empty() bool { return len(r.Series) == 0 }
