package ledgerfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

// Store is a JSON-file ports.LedgerStore. The format matches the flat
// stats record the bot has always kept: totals plus a date→profit map.
type Store struct {
	path string
}

// New creates a Store backed by the given file path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the ledger file. A missing or unparseable file yields a
// fresh zero-state ledger — startup must never fail on stats.
func (s *Store) Load(_ context.Context) (domain.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("ledger: no existing stats file, starting fresh", "path", s.path)
			return domain.NewLedger(time.Now()), nil
		}
		slog.Warn("ledger: cannot read stats file, starting fresh", "path", s.path, "err", err)
		return domain.NewLedger(time.Now()), nil
	}

	var ledger domain.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		slog.Warn("ledger: corrupt stats file, starting fresh", "path", s.path, "err", err)
		return domain.NewLedger(time.Now()), nil
	}
	if ledger.DailyProfits == nil {
		ledger.DailyProfits = make(map[string]float64)
	}
	if ledger.StartTime.IsZero() {
		ledger.StartTime = time.Now().UTC()
	}
	return ledger, nil
}

// Save writes the ledger atomically: temp file in the same directory,
// then rename over the target.
func (s *Store) Save(_ context.Context, ledger domain.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("ledgerfile.Save: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".straddle_stats-*.tmp")
	if err != nil {
		return fmt.Errorf("ledgerfile.Save: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ledgerfile.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledgerfile.Save: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ledgerfile.Save: rename: %w", err)
	}
	return nil
}
