package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/rgonzalo/straddlebot/internal/adapters/storage"
	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeCycle(id string, profit float64, closedAt time.Time) domain.CycleRecord {
	return domain.CycleRecord{
		CycleID:        id,
		Instrument:     "EURUSD",
		Result:         domain.StateRecorded,
		Movement:       0.002,
		Spread:         0.0004,
		Volume:         0.1,
		ExpectedProfit: profit,
		RealizedProfit: profit,
		BuyLegProfit:   profit,
		SellLegProfit:  0,
		OpenedAt:       closedAt.Add(-30 * time.Second),
		ClosedAt:       closedAt,
	}
}

func TestSQLiteStore_SaveAndStats(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	day1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveCycle(ctx, makeCycle("c1", 1.2, day1)))
	require.NoError(t, db.SaveCycle(ctx, makeCycle("c2", 0.8, day1.Add(time.Hour))))
	require.NoError(t, db.SaveCycle(ctx, makeCycle("c3", 2.0, day2)))

	aborted := makeCycle("c4", 0, day2.Add(time.Hour))
	aborted.Result = domain.StateAborted
	aborted.RealizedProfit = 0
	aborted.BuyLegProfit = 0
	require.NoError(t, db.SaveCycle(ctx, aborted))

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalCycles)
	assert.Equal(t, 3, stats.Recorded)
	assert.Equal(t, 1, stats.Aborted)
	assert.Equal(t, 3, stats.Wins)
	assert.InDelta(t, 4.0, stats.TotalProfit, 1e-9)
	assert.InDelta(t, 2.0, stats.BestWin, 1e-9)

	require.Len(t, stats.Dailies, 2)
	assert.Equal(t, 2, stats.Dailies[0].Cycles)
	assert.InDelta(t, 2.0, stats.Dailies[0].Profit, 1e-9)
	assert.Equal(t, 1, stats.Dailies[1].Cycles)
	assert.InDelta(t, 2.0, stats.Dailies[1].Profit, 1e-9)
	assert.InDelta(t, 30.0, stats.Dailies[1].AvgWaitS, 1.0)
}

func TestSQLiteStore_UpsertSameCycle(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	when := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := makeCycle("c1", 0.5, when)
	require.NoError(t, db.SaveCycle(ctx, rec))

	// A retried close rewrites the same cycle ID with the final numbers.
	rec.RealizedProfit = 0.9
	require.NoError(t, db.SaveCycle(ctx, rec))

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCycles)
	assert.InDelta(t, 0.9, stats.TotalProfit, 1e-9)
}

func TestSQLiteStore_EmptyStats(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCycles)
	assert.Empty(t, stats.Dailies)
	assert.True(t, stats.FirstCycle.IsZero())
}
