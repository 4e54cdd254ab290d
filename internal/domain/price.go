package domain

import "time"

// Snapshot is a single bid/ask observation from the price feed.
// Produced fresh on every poll; the engine only ever keeps the current
// sample and the reference mid from the last recorded cycle.
type Snapshot struct {
	Bid  float64
	Ask  float64
	Time time.Time
}

// Mid returns the mid price (bid+ask)/2.
func (s Snapshot) Mid() float64 {
	return (s.Bid + s.Ask) / 2
}

// Spread returns ask − bid, the round-trip cost per unit of one leg.
func (s Snapshot) Spread() float64 {
	return s.Ask - s.Bid
}

// IsZero reports whether the snapshot carries no quote.
func (s Snapshot) IsZero() bool {
	return s.Bid == 0 && s.Ask == 0
}
