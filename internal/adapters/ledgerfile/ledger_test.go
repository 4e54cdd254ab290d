package ledgerfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgonzalo/straddlebot/internal/adapters/ledgerfile"
	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadMissingFile(t *testing.T) {
	s := ledgerfile.New(filepath.Join(t.TempDir(), "nope.json"))

	ledger, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ledger.TotalProfit)
	assert.Zero(t, ledger.TotalTrades)
	assert.Zero(t, ledger.WinningTrades)
	assert.Empty(t, ledger.DailyProfits)
	assert.False(t, ledger.StartTime.IsZero())
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := ledgerfile.New(path)
	ledger, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ledger.TotalTrades)
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	s := ledgerfile.New(path)
	ctx := context.Background()

	ledger := domain.NewLedger(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	ledger.Record(domain.CycleOutcome{
		RealizedProfit: 1.25,
		ClosedAt:       time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	ledger.RecordAttempt()

	require.NoError(t, s.Save(ctx, ledger))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, loaded.TotalProfit, 1e-9)
	assert.Equal(t, 2, loaded.TotalTrades)
	assert.Equal(t, 1, loaded.WinningTrades)
	assert.InDelta(t, 1.25, loaded.DailyProfits["2025-03-02"], 1e-9)
}

// Load followed by an immediate Save must reproduce the file exactly:
// restarting the bot with no new cycles cannot drift the totals.
func TestStore_SaveAfterLoadIsByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	s := ledgerfile.New(path)
	ctx := context.Background()

	ledger := domain.NewLedger(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	ledger.Record(domain.CycleOutcome{RealizedProfit: 0.4, ClosedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)})
	ledger.Record(domain.CycleOutcome{RealizedProfit: 0.7, ClosedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)})
	require.NoError(t, s.Save(ctx, ledger))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, loaded))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := ledgerfile.New(filepath.Join(dir, "stats.json"))

	require.NoError(t, s.Save(context.Background(), domain.NewLedger(time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "stats.json", entries[0].Name())
}
