package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"IntraCast/internal/domain/models"
	domrepo "IntraCast/internal/domain/repository"
	pkgch "IntraCast/pkg/clickhouse"
	applogger "IntraCast/pkg/logger"
)

// CHBarStore persists indicator-enriched bars in ClickHouse. Replacement
// inserts into a staging table and swaps it in with EXCHANGE TABLES, so a
// reader sees either the previous bar set or the new one, never a partial
// write. Readers remain eventually consistent across a swap.
type CHBarStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, database string) *CHBarStore {
	return &CHBarStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

const barColumns = "ts, symbol, open, high, low, close, volume, ema_9, ema_21, rsi, macd, macd_signal, atr, volatility"

func (s *CHBarStore) barsTable() string    { return s.database + ".bars" }
func (s *CHBarStore) stagingTable() string { return s.database + ".bars_staging" }

// Init ensures the live and staging bar tables exist.
func (s *CHBarStore) Init(ctx context.Context) error {
	for _, table := range []string{s.barsTable(), s.stagingTable()} {
		q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            ts DateTime('UTC'),
            symbol String,
            open Float64, high Float64, low Float64, close Float64, volume Float64,
            ema_9 Float64, ema_21 Float64, rsi Float64,
            macd Float64, macd_signal Float64, atr Float64, volatility Float64
        ) ENGINE=MergeTree ORDER BY (symbol, ts)`, table)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}
	return nil
}

// Replace swaps the whole bars table with the given rows. All-or-nothing:
// the staging table is truncated, loaded, then exchanged with the live
// table in a single DDL statement. The exchange is table-wide, so rows
// for any other symbol do not survive the swap.
func (s *CHBarStore) Replace(ctx context.Context, symbol string, bars []models.IndicatorBar) error {
	start := time.Now()

	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.stagingTable()); err != nil {
		return fmt.Errorf("%w: truncate staging: %v", models.ErrStoreUnavailable, err)
	}

	const chunkSize = 2000
	for lo := 0; lo < len(bars); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(bars) {
			hi = len(bars)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*14)
		for _, b := range bars[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				b.Timestamp.UTC(), symbol,
				b.Open, b.High, b.Low, b.Close, b.Volume,
				b.EMA9, b.EMA21, b.RSI, b.MACD, b.MACDSignal, b.ATR, b.Volatility,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.stagingTable(), barColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse bar staging insert error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("%w: stage bars: %v", models.ErrStoreUnavailable, err)
		}
	}

	q := fmt.Sprintf("EXCHANGE TABLES %s AND %s", s.stagingTable(), s.barsTable())
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse bar table swap error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("%w: swap bars: %v", models.ErrStoreUnavailable, err)
	}

	if s.l != nil {
		s.l.Info("clickhouse bars replaced",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// LatestN returns the last n raw bars for a symbol, newest-last.
func (s *CHBarStore) LatestN(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	q := fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?`, s.barsTable())
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("%w: latest bars: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	tmp := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

// LatestIndicatorBars returns the last n enriched bars, newest-last. Used
// by on-demand prediction to rebuild the latest feature vector.
func (s *CHBarStore) LatestIndicatorBars(ctx context.Context, symbol string, n int) ([]models.IndicatorBar, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?`, barColumns, s.barsTable())
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("%w: latest indicator bars: %v", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	tmp := make([]models.IndicatorBar, 0, n)
	for rows.Next() {
		var b models.IndicatorBar
		var sym string
		if err := rows.Scan(&b.Timestamp, &sym, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&b.EMA9, &b.EMA21, &b.RSI, &b.MACD, &b.MACDSignal, &b.ATR, &b.Volatility); err != nil {
			return nil, fmt.Errorf("scan indicator bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ domrepo.BarStore = (*CHBarStore)(nil)
