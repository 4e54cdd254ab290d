package domain

import "time"

// DateLayout is the key format for the daily profit buckets.
const DateLayout = "2006-01-02"

// Ledger holds the durable trading counters. Mutated only by the engine
// after a cycle completes; persisted by a LedgerStore after every update.
type Ledger struct {
	TotalProfit   float64            `json:"total_profit"`
	TotalTrades   int                `json:"total_trades"`
	WinningTrades int                `json:"winning_trades"`
	DailyProfits  map[string]float64 `json:"daily_profits"`
	StartTime     time.Time          `json:"start_time"`
}

// NewLedger returns a zero-state ledger starting now.
func NewLedger(now time.Time) Ledger {
	return Ledger{
		DailyProfits: make(map[string]float64),
		StartTime:    now.UTC(),
	}
}

// Record applies a completed cycle outcome: one trade, a win when the
// realized profit is positive, and the day's bucket updated.
func (l *Ledger) Record(outcome CycleOutcome) {
	if l.DailyProfits == nil {
		l.DailyProfits = make(map[string]float64)
	}
	l.TotalTrades++
	if outcome.RealizedProfit > 0 {
		l.WinningTrades++
		l.TotalProfit += outcome.RealizedProfit
		day := outcome.ClosedAt.UTC().Format(DateLayout)
		l.DailyProfits[day] += outcome.RealizedProfit
	}
}

// RecordAttempt counts a cycle where at least one leg opened but no
// profit was realized (e.g. an emergency unwind). Capital was at risk,
// so it counts as a trade, never as a win.
func (l *Ledger) RecordAttempt() {
	l.TotalTrades++
}

// WinRate returns winning trades over total trades, 0 when empty.
func (l Ledger) WinRate() float64 {
	if l.TotalTrades == 0 {
		return 0
	}
	return float64(l.WinningTrades) / float64(l.TotalTrades)
}

// Clone returns a deep copy safe to hand to readers outside the engine.
func (l Ledger) Clone() Ledger {
	out := l
	out.DailyProfits = make(map[string]float64, len(l.DailyProfits))
	for k, v := range l.DailyProfits {
		out.DailyProfits[k] = v
	}
	return out
}
