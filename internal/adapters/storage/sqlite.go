package storage

// sqlite.go — durable cycle history for reporting.
//
// One row per cycle that opened at least one leg. The JSON ledger file is
// the authoritative profit counter; this table exists so the report mode
// can break results down per day and per cycle after restarts.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
    cycle_id        TEXT PRIMARY KEY,
    instrument      TEXT NOT NULL,
    result          TEXT NOT NULL,
    movement        REAL NOT NULL DEFAULT 0,
    spread          REAL NOT NULL DEFAULT 0,
    volume          REAL NOT NULL DEFAULT 0,
    expected_profit REAL NOT NULL DEFAULT 0,
    realized_profit REAL NOT NULL DEFAULT 0,
    buy_leg_profit  REAL NOT NULL DEFAULT 0,
    sell_leg_profit REAL NOT NULL DEFAULT 0,
    opened_at       DATETIME NOT NULL,
    closed_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_closed ON cycles(closed_at DESC);
CREATE INDEX IF NOT EXISTS idx_cycles_result ON cycles(result);
`

// Cycle rows older than this are pruned at startup.
const retentionCycles = 90 * 24 * time.Hour

// SQLiteStore implements ports.CycleStore on SQLite (pure Go, no CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path,
// applies the schema and prunes old rows.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStore: apply schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveCycle persists one completed cycle.
func (s *SQLiteStore) SaveCycle(ctx context.Context, rec domain.CycleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycles
			(cycle_id, instrument, result, movement, spread, volume,
			 expected_profit, realized_profit, buy_leg_profit, sell_leg_profit,
			 opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cycle_id) DO UPDATE SET
			result          = excluded.result,
			realized_profit = excluded.realized_profit,
			buy_leg_profit  = excluded.buy_leg_profit,
			sell_leg_profit = excluded.sell_leg_profit,
			closed_at       = excluded.closed_at
	`,
		rec.CycleID,
		rec.Instrument,
		string(rec.Result),
		rec.Movement,
		rec.Spread,
		rec.Volume,
		rec.ExpectedProfit,
		rec.RealizedProfit,
		rec.BuyLegProfit,
		rec.SellLegProfit,
		rec.OpenedAt.UTC(),
		rec.ClosedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: upsert %s: %w", rec.CycleID, err)
	}
	return nil
}

// GetStats aggregates the whole stored history plus per-day summaries.
func (s *SQLiteStore) GetStats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	var first, last sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN result = 'RECORDED' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN result = 'ABORTED' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN realized_profit > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(realized_profit), 0),
		       COALESCE(MAX(realized_profit), 0),
		       MIN(closed_at), MAX(closed_at)
		FROM cycles
	`).Scan(&stats.TotalCycles, &stats.Recorded, &stats.Aborted, &stats.Wins,
		&stats.TotalProfit, &stats.BestWin, &first, &last)
	if err != nil {
		return stats, fmt.Errorf("storage.GetStats: totals: %w", err)
	}

	if first.Valid {
		stats.FirstCycle, _ = parseStoredTime(first.String)
	}
	if last.Valid {
		stats.LastCycle, _ = parseStoredTime(last.String)
	}
	if !stats.FirstCycle.IsZero() && !stats.LastCycle.IsZero() {
		stats.DaysRunning = int(stats.LastCycle.Sub(stats.FirstCycle).Hours()/24) + 1
	}
	if stats.Recorded > 0 {
		stats.AvgProfit = stats.TotalProfit / float64(stats.Recorded)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(closed_at),
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN realized_profit > 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(realized_profit), 0),
		       COALESCE(MAX(realized_profit), 0),
		       COALESCE(AVG(strftime('%s', closed_at) - strftime('%s', opened_at)), 0)
		FROM cycles
		WHERE result = 'RECORDED'
		GROUP BY date(closed_at)
		ORDER BY date(closed_at)
	`)
	if err != nil {
		return stats, fmt.Errorf("storage.GetStats: dailies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.DailySummary
		var day string
		if err := rows.Scan(&day, &d.Cycles, &d.Wins, &d.Profit, &d.BestWin, &d.AvgWaitS); err != nil {
			return stats, fmt.Errorf("storage.GetStats: scan daily: %w", err)
		}
		d.Date, _ = time.Parse(domain.DateLayout, day)
		stats.Dailies = append(stats.Dailies, d)
	}

	return stats, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// pruneOld drops ancient cycles to keep the DB small.
func (s *SQLiteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCycles)
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE closed_at < ?`, cutoff)
}

// parseStoredTime handles the two timestamp formats the driver may
// round-trip: RFC3339 and the bare SQLite layout.
func parseStoredTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05-07:00", v)
}
