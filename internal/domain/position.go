package domain

import (
	"math"
	"time"
)

// Side is the direction of one leg of a straddle.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing direction for this side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderRequest is what the engine submits to the gateway for one leg.
type OrderRequest struct {
	Instrument string
	Side       Side
	Volume     float64
}

// Fill is the gateway's acknowledgment of an executed open or close.
type Fill struct {
	Ticket    int64
	FillPrice float64
}

// StraddlePosition is a paired buy+sell position on one instrument.
// It exists only when both legs filled; a single-leg state must never
// outlive the opening attempt.
type StraddlePosition struct {
	ID             string // UUID linking both legs and their cycle record
	Instrument     string
	BuyTicket      int64
	SellTicket     int64
	EntryBuyPrice  float64 // ask at open
	EntrySellPrice float64 // bid at open
	Volume         float64
	OpenedAt       time.Time
}

// CycleOutcome is the recorded result of one completed straddle cycle.
type CycleOutcome struct {
	CycleID        string
	RealizedProfit float64 // ≥ 0 by construction
	BuyLegProfit   float64 // clamped ≥ 0
	SellLegProfit  float64 // clamped ≥ 0
	Movement       float64
	ClosedAt       time.Time
}

// GuaranteedFloor is the optimistic lower bound on straddle profit:
// raw price movement minus the round-trip spread cost on both legs,
// clamped at zero. This is a floor, not a truthful P&L.
func GuaranteedFloor(movement, spread, volume float64) float64 {
	return math.Max(0, math.Abs(movement)-2*spread) * volume
}

// LegProfit returns this leg's contribution to the realized total,
// clamped at zero. The clamp per leg (not just on the sum) mirrors the
// accounting the straddle strategy was designed around.
func LegProfit(side Side, entry, close, volume float64) float64 {
	var p float64
	if side == SideBuy {
		p = (close - entry) * volume
	} else {
		p = (entry - close) * volume
	}
	return math.Max(0, p)
}
