package domain

import "time"

// CycleRecord is the per-cycle row persisted to the history store.
// One row per cycle that opened at least one leg.
type CycleRecord struct {
	CycleID        string
	Instrument     string
	Result         CycleState // RECORDED or ABORTED
	Movement       float64
	Spread         float64
	Volume         float64
	ExpectedProfit float64
	RealizedProfit float64
	BuyLegProfit   float64
	SellLegProfit  float64
	OpenedAt       time.Time
	ClosedAt       time.Time
}

// DailySummary aggregates one day of recorded cycles.
type DailySummary struct {
	Date     time.Time
	Cycles   int
	Wins     int
	Profit   float64
	BestWin  float64
	AvgWaitS float64
}

// Stats aggregates the whole cycle history for the report mode.
type Stats struct {
	FirstCycle  time.Time
	LastCycle   time.Time
	DaysRunning int
	TotalCycles int
	Recorded    int
	Aborted     int
	Wins        int
	TotalProfit float64
	BestWin     float64
	AvgProfit   float64
	Dailies     []DailySummary
}
