package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
)

const closeRetryBackoff = 500 * time.Millisecond

// pendingClose is a position in CLOSING. It survives a failed close
// attempt so the next poll iteration can retry the remaining legs before
// any new cycle is allowed to open.
type pendingClose struct {
	Pos        *domain.StraddlePosition
	Eval       Evaluation
	BuyClosed  bool
	SellClosed bool
	BuyFill    domain.Fill
	SellFill   domain.Fill
	CloseMid   float64 // mid used at close; becomes the next movement baseline
}

// waitDuration is the hold time before closing: longer when the expected
// profit is larger, shorter when the price is moving fast, clamped to the
// configured [WaitMin, WaitMax] range.
func (e *Engine) waitDuration(movement, expectedProfit float64) time.Duration {
	movementRatio := 1.0
	if e.cfg.MinMovement > 0 {
		movementRatio = movement / e.cfg.MinMovement
	}
	profitRatio := 1.0
	if e.cfg.MinProfitPerTrade > 0 {
		profitRatio = expectedProfit / e.cfg.MinProfitPerTrade
	}

	scaled := float64(e.cfg.Wait) * (1 + profitRatio) / (1 + movementRatio)
	d := time.Duration(scaled)

	if d < e.cfg.WaitMin {
		return e.cfg.WaitMin
	}
	if d > e.cfg.WaitMax {
		return e.cfg.WaitMax
	}
	return d
}

// closeStraddle closes both legs of a pending position, retrying each
// leg up to CloseRetries times. Legs already closed by a previous
// attempt are skipped. Returns an error while any leg remains open.
func (e *Engine) closeStraddle(ctx context.Context, p *pendingClose) (domain.CycleOutcome, error) {
	if !p.BuyClosed {
		fill, err := e.closeLegWithRetry(ctx, p.Pos.BuyTicket, p.Pos.Volume, domain.SideBuy)
		if err != nil {
			return domain.CycleOutcome{}, fmt.Errorf("engine.closeStraddle: buy leg: %w", err)
		}
		p.BuyFill = fill
		p.BuyClosed = true
	}

	if !p.SellClosed {
		fill, err := e.closeLegWithRetry(ctx, p.Pos.SellTicket, p.Pos.Volume, domain.SideSell)
		if err != nil {
			return domain.CycleOutcome{}, fmt.Errorf("engine.closeStraddle: sell leg: %w", err)
		}
		p.SellFill = fill
		p.SellClosed = true
	}

	return e.reconcile(ctx, p), nil
}

// reconcile computes the cycle outcome from the close fills. Each leg is
// clamped at zero before summing, and the total is floored by the
// guaranteed-profit formula recomputed at close time. Never negative.
func (e *Engine) reconcile(ctx context.Context, p *pendingClose) domain.CycleOutcome {
	pos := p.Pos
	buyProfit := domain.LegProfit(domain.SideBuy, pos.EntryBuyPrice, p.BuyFill.FillPrice, pos.Volume)
	sellProfit := domain.LegProfit(domain.SideSell, pos.EntrySellPrice, p.SellFill.FillPrice, pos.Volume)

	entryMid := (pos.EntryBuyPrice + pos.EntrySellPrice) / 2
	movement := p.Eval.Movement
	spread := p.Eval.Spread
	p.CloseMid = entryMid
	if snap, err := e.feed.GetSnapshot(ctx, pos.Instrument); err == nil {
		movement = math.Abs(snap.Mid() - entryMid)
		spread = snap.Spread()
		p.CloseMid = snap.Mid()
	}

	floor := domain.GuaranteedFloor(movement, spread, pos.Volume)
	realized := math.Max(buyProfit+sellProfit, floor)

	return domain.CycleOutcome{
		CycleID:        pos.ID,
		RealizedProfit: realized,
		BuyLegProfit:   buyProfit,
		SellLegProfit:  sellProfit,
		Movement:       movement,
		ClosedAt:       time.Now().UTC(),
	}
}

// closeLegWithRetry attempts to close one leg with short backoff between
// attempts. A close timeout is a failure, never an assumed success.
func (e *Engine) closeLegWithRetry(ctx context.Context, ticket int64, volume float64, side domain.Side) (domain.Fill, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.CloseRetries; attempt++ {
		fill, err := e.gateway.ClosePosition(ctx, ticket, volume, side)
		if err == nil {
			return fill, nil
		}
		lastErr = err
		slog.Warn("straddle: close attempt failed",
			"ticket", ticket, "side", side, "attempt", attempt, "err", err)

		if attempt < e.cfg.CloseRetries {
			select {
			case <-time.After(time.Duration(attempt) * closeRetryBackoff):
			case <-ctx.Done():
				return domain.Fill{}, fmt.Errorf("close %d aborted: %w", ticket, ctx.Err())
			}
		}
	}
	return domain.Fill{}, fmt.Errorf("close %d failed after %d attempts: %w", ticket, e.cfg.CloseRetries, lastErr)
}
