package ports

import (
	"context"
	"errors"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

// ErrNoPrice means the feed had no quote for the instrument right now.
// Transient: the engine skips the poll iteration and tries again.
var ErrNoPrice = errors.New("no price available")

// ErrUnknownInstrument means the terminal does not know the configured
// symbol. Fatal at startup.
var ErrUnknownInstrument = errors.New("unknown instrument")

// PriceFeed supplies bid/ask snapshots on demand.
type PriceFeed interface {
	// GetSnapshot returns the current quote for the instrument.
	// Returns ErrNoPrice when the terminal has no quote yet.
	GetSnapshot(ctx context.Context, instrument string) (domain.Snapshot, error)
}
