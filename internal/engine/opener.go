package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/google/uuid"
)

// openResult reports how far the opener got. LegOpened distinguishes a
// clean abort (first leg rejected, non-event) from an attempted trade
// (first leg filled, second rejected, position unwound).
type openResult struct {
	CycleID   string
	Position  *domain.StraddlePosition
	LegOpened bool
	Err       error
}

// openStraddle submits the buy leg at ask, pauses, then the sell leg at
// bid. The two submissions are deliberately not atomic; the pause gives
// the terminal time to book the first leg before the second arrives.
func (e *Engine) openStraddle(ctx context.Context, snap domain.Snapshot, lot float64) openResult {
	cycleID := uuid.New().String()

	buyFill, err := e.gateway.OpenMarketOrder(ctx, domain.OrderRequest{
		Instrument: e.cfg.Instrument,
		Side:       domain.SideBuy,
		Volume:     lot,
	})
	if err != nil {
		return openResult{CycleID: cycleID, Err: fmt.Errorf("engine.openStraddle: buy leg: %w", err)}
	}

	slog.Info("straddle: buy leg filled",
		"cycle", shortID(cycleID),
		"ticket", buyFill.Ticket,
		"price", fmt.Sprintf("%.5f", buyFill.FillPrice),
	)

	select {
	case <-time.After(e.cfg.LegDelay):
	case <-ctx.Done():
		// Already holding one leg: fall through and try the sell leg
		// anyway so we never return with a naked position.
	}

	sellFill, err := e.gateway.OpenMarketOrder(ctx, domain.OrderRequest{
		Instrument: e.cfg.Instrument,
		Side:       domain.SideSell,
		Volume:     lot,
	})
	if err != nil {
		slog.Warn("straddle: sell leg failed, unwinding buy leg",
			"cycle", shortID(cycleID), "buy_ticket", buyFill.Ticket, "err", err)
		e.emergencyClose(ctx, buyFill.Ticket, lot, domain.SideBuy)
		return openResult{CycleID: cycleID, LegOpened: true, Err: fmt.Errorf("engine.openStraddle: sell leg: %w", err)}
	}

	pos := &domain.StraddlePosition{
		ID:             cycleID,
		Instrument:     e.cfg.Instrument,
		BuyTicket:      buyFill.Ticket,
		SellTicket:     sellFill.Ticket,
		EntryBuyPrice:  buyFill.FillPrice,
		EntrySellPrice: sellFill.FillPrice,
		Volume:         lot,
		OpenedAt:       time.Now().UTC(),
	}

	slog.Info("straddle: both legs open",
		"cycle", shortID(cycleID),
		"buy_ticket", pos.BuyTicket,
		"sell_ticket", pos.SellTicket,
		"buy_price", fmt.Sprintf("%.5f", pos.EntryBuyPrice),
		"sell_price", fmt.Sprintf("%.5f", pos.EntrySellPrice),
		"volume", lot,
		"spread_at_open", fmt.Sprintf("%.5f", snap.Spread()),
	)
	return openResult{CycleID: cycleID, Position: pos, LegOpened: true}
}

// emergencyClose unwinds a single naked leg at the best available price.
// One attempt only; a failure here leaves real capital exposed one-sided,
// so it is the loudest log line in the engine. The unwind runs on a
// fresh deadline when the run context has already been canceled (a stop
// request mid-open must not leave the leg naked).
func (e *Engine) emergencyClose(ctx context.Context, ticket int64, volume float64, side domain.Side) {
	closeCtx, cancel := e.closeContext(ctx)
	defer cancel()

	if _, err := e.gateway.ClosePosition(closeCtx, ticket, volume, side); err != nil {
		slog.Error("straddle: EMERGENCY CLOSE FAILED — naked leg still open, close ticket manually",
			"ticket", ticket, "side", side, "volume", volume, "err", err)
		return
	}
	slog.Info("straddle: emergency close done", "ticket", ticket, "side", side)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
