package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"IntraCast/internal/domain/models"
	domrepo "IntraCast/internal/domain/repository"
	pkgch "IntraCast/pkg/clickhouse"
	applogger "IntraCast/pkg/logger"
)

// CHSignalStore is the append-only prediction log: one row per pipeline
// tick, never updated. This is schema v2, the variant that carries
// volatility_class and confidence_score; v1 rows (without those columns)
// are a migration source, not a layout this store will write.
type CHSignalStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client, database string) *CHSignalStore {
	return &CHSignalStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) table() string { return s.database + ".signals" }

// Init ensures the signals table exists.
func (s *CHSignalStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        ts DateTime('UTC'),
        symbol String,
        current_price Float64,
        predicted_price Float64,
        expected_return_percent Float64,
        direction String,
        probability_up Float64,
        volatility_class String,
        confidence_score Float64,
        trade_action String,
        schema_version UInt8 DEFAULT 2
    ) ENGINE=MergeTree ORDER BY (symbol, ts)`, s.table())
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create %s: %w", s.table(), err)
	}
	return nil
}

// Append inserts one signal row.
func (s *CHSignalStore) Append(ctx context.Context, sig models.Signal) error {
	start := time.Now()
	q := fmt.Sprintf(`INSERT INTO %s
        (ts, symbol, current_price, predicted_price, expected_return_percent,
         direction, probability_up, volatility_class, confidence_score, trade_action)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table())
	_, err := s.db.ExecContext(ctx, q,
		sig.Timestamp.UTC(), sig.Symbol,
		sig.CurrentPrice, sig.PredictedPrice, sig.ExpectedReturnPercent,
		sig.Direction, sig.ProbabilityUp, sig.VolatilityClass,
		sig.ConfidenceScore, sig.TradeAction,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse signal append error",
				applogger.String("symbol", sig.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("%w: append signal: %v", models.ErrStoreUnavailable, err)
	}
	if s.l != nil {
		s.l.Info("clickhouse signal appended",
			applogger.String("symbol", sig.Symbol),
			applogger.String("action", sig.TradeAction),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// List returns all signals in timestamp order.
func (s *CHSignalStore) List(ctx context.Context) ([]models.Signal, error) {
	q := fmt.Sprintf(`
        SELECT ts, symbol, current_price, predicted_price, expected_return_percent,
               direction, probability_up, volatility_class, confidence_score, trade_action
        FROM %s
        ORDER BY ts ASC`, s.table())
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: list signals: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := make([]models.Signal, 0, 256)
	for rows.Next() {
		var sig models.Signal
		if err := rows.Scan(&sig.Timestamp, &sig.Symbol,
			&sig.CurrentPrice, &sig.PredictedPrice, &sig.ExpectedReturnPercent,
			&sig.Direction, &sig.ProbabilityUp, &sig.VolatilityClass,
			&sig.ConfidenceScore, &sig.TradeAction); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)
