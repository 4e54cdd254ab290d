package ports

import (
	"context"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

// CycleStore persists per-cycle history for reporting.
type CycleStore interface {
	// SaveCycle persists one completed (recorded or aborted) cycle.
	SaveCycle(ctx context.Context, rec domain.CycleRecord) error

	// GetStats aggregates the stored history, including daily summaries.
	GetStats(ctx context.Context) (domain.Stats, error)

	// Close releases the underlying database.
	Close() error
}
