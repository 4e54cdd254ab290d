package ports

import (
	"context"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

// LedgerStore persists the trading counters across restarts.
type LedgerStore interface {
	// Load returns the saved ledger. A missing or corrupt backing file
	// yields a zero-state ledger, never an error that stops startup.
	Load(ctx context.Context) (domain.Ledger, error)

	// Save durably writes the ledger. Called after every RECORDED cycle.
	// Failures must not block trading; the in-memory ledger stays
	// authoritative until the next successful save.
	Save(ctx context.Context, ledger domain.Ledger) error
}
