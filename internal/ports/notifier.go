package ports

import (
	"context"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

// Notifier presents cycle results to the user. Implementations only read
// the snapshots they are handed; they never mutate engine state.
type Notifier interface {
	// NotifyCycle reports one finished cycle and the ledger totals after it.
	NotifyCycle(ctx context.Context, rec domain.CycleRecord, ledger domain.Ledger) error

	// NotifySkip reports a rejected evaluation with its human-readable reason.
	NotifySkip(ctx context.Context, reason string) error
}
