package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/rgonzalo/straddlebot/internal/ports"
)

const shutdownCloseTimeout = 30 * time.Second

// Config holds the straddle engine parameters.
type Config struct {
	Instrument        string
	MinMovement       float64
	LotSize           float64
	LotMultiplier     float64
	MinProfitPerTrade float64
	MaxSpread         float64
	ProfitRatio       float64
	Wait              time.Duration
	WaitMin           time.Duration
	WaitMax           time.Duration
	CheckInterval     time.Duration
	LegDelay          time.Duration
	CloseRetries      int
}

// Engine runs the straddle cycle: evaluate → open both legs → hold →
// close both legs → record. Exactly one cycle is in flight at any time;
// commands and stop signals are honored only between cycles.
type Engine struct {
	cfg      Config
	feed     ports.PriceFeed
	gateway  ports.OrderGateway
	ledgers  ports.LedgerStore
	cycles   ports.CycleStore
	notifier ports.Notifier

	eval    *evaluator
	pending *pendingClose

	commands chan Command
	paused   bool

	mu     sync.RWMutex
	state  domain.CycleState
	ledger domain.Ledger
}

// New creates an Engine with all dependencies injected. cycles and
// notifier may be nil (dry runs).
func New(
	cfg Config,
	feed ports.PriceFeed,
	gateway ports.OrderGateway,
	ledgers ports.LedgerStore,
	cycles ports.CycleStore,
	notifier ports.Notifier,
	predictor ports.Predictor,
) *Engine {
	if cfg.LotMultiplier <= 0 {
		cfg.LotMultiplier = 1
	}
	if cfg.ProfitRatio <= 0 {
		cfg.ProfitRatio = 1
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 30 * time.Second
	}
	if cfg.WaitMin <= 0 {
		cfg.WaitMin = time.Second
	}
	if cfg.WaitMax <= 0 {
		cfg.WaitMax = 5 * time.Minute
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Second
	}
	if cfg.CloseRetries <= 0 {
		cfg.CloseRetries = 3
	}

	return &Engine{
		cfg:      cfg,
		feed:     feed,
		gateway:  gateway,
		ledgers:  ledgers,
		cycles:   cycles,
		notifier: notifier,
		eval:     newEvaluator(cfg, predictor),
		commands: make(chan Command, 8),
		state:    domain.StateIdle,
	}
}

// Run executes the polling loop until the context is canceled. The
// saved ledger is loaded first; a position still open at shutdown gets a
// best-effort close on a fresh deadline before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	ledger, err := e.ledgers.Load(ctx)
	if err != nil {
		return fmt.Errorf("engine.Run: load ledger: %w", err)
	}
	e.setLedger(ledger)

	slog.Info("engine starting",
		"instrument", e.cfg.Instrument,
		"min_movement", e.cfg.MinMovement,
		"lot", e.cfg.LotSize*e.cfg.LotMultiplier,
		"max_spread", e.cfg.MaxSpread,
		"interval", e.cfg.CheckInterval,
		"trades_so_far", ledger.TotalTrades,
		"profit_so_far", fmt.Sprintf("$%.2f", ledger.TotalProfit),
	)

	if e.iterate(ctx) {
		return nil
	}

	ticker := time.NewTicker(e.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			if e.iterate(ctx) {
				slog.Info("engine stopped by command")
				return nil
			}
		}
	}
}

// RunOnce executes exactly one poll iteration (evaluate and, if the
// entry conditions pass, the full open-hold-close cycle).
func (e *Engine) RunOnce(ctx context.Context) error {
	ledger, err := e.ledgers.Load(ctx)
	if err != nil {
		return fmt.Errorf("engine.RunOnce: load ledger: %w", err)
	}
	e.setLedger(ledger)
	e.iterate(ctx)
	e.shutdown()
	return nil
}

// iterate runs one tick: drain commands, retry a pending close, or run a
// fresh cycle. Returns true when a close-and-exit command was processed.
func (e *Engine) iterate(ctx context.Context) (exit bool) {
	if e.drainCommands() {
		e.shutdown()
		return true
	}

	// A position flagged from a failed close blocks any new cycle until
	// it is gone. Retried even while paused: pause only gates opening.
	if e.pending != nil {
		e.resumePendingClose(ctx)
		return false
	}
	if e.paused {
		return false
	}

	e.runCycle(ctx)
	return false
}

// runCycle drives one straddle cycle through the state machine.
func (e *Engine) runCycle(ctx context.Context) {
	e.setState(domain.StateEvaluating)

	snap, err := e.feed.GetSnapshot(ctx, e.cfg.Instrument)
	if err != nil {
		if errors.Is(err, ports.ErrNoPrice) {
			slog.Debug("engine: no price this poll, skipping")
		} else {
			slog.Warn("engine: feed error, skipping poll", "err", err)
		}
		e.setState(domain.StateIdle)
		return
	}

	eval := e.eval.Evaluate(snap)
	if !eval.Open {
		slog.Debug("engine: entry rejected", "reason", eval.Reason)
		e.notifySkip(ctx, eval.Reason)
		e.setState(domain.StateIdle)
		return
	}

	slog.Info("engine: entry accepted",
		"movement", fmt.Sprintf("%.5f", eval.Movement),
		"expected_profit", fmt.Sprintf("$%.2f", eval.ExpectedProfit),
		"lot", eval.Lot,
		"hint", eval.Hint,
		"hint_confidence", fmt.Sprintf("%.2f", eval.HintConfidence),
	)

	e.setState(domain.StateOpening)
	res := e.openStraddle(ctx, snap, eval.Lot)
	if res.Err != nil {
		slog.Warn("engine: cycle aborted", "cycle", shortID(res.CycleID), "err", res.Err)
		if res.LegOpened {
			e.recordAttempt(ctx, res, eval)
		}
		e.setState(domain.StateAborted)
		e.setState(domain.StateIdle)
		return
	}

	e.setState(domain.StateOpen)
	wait := e.waitDuration(eval.Movement, eval.ExpectedProfit)
	slog.Info("engine: holding position", "cycle", shortID(res.CycleID), "wait", wait)
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		// Shutting down with both legs open: skip the rest of the
		// hold and go straight to CLOSING.
		slog.Warn("engine: stop requested mid-hold, closing early", "cycle", shortID(res.CycleID))
	}

	e.pending = &pendingClose{Pos: res.Position, Eval: eval}
	e.setState(domain.StateClosing)
	e.resumePendingClose(ctx)
}

// resumePendingClose tries to finish closing the in-flight position.
// On failure the position stays flagged for the next poll.
func (e *Engine) resumePendingClose(ctx context.Context) {
	closeCtx, cancel := e.closeContext(ctx)
	defer cancel()

	outcome, err := e.closeStraddle(closeCtx, e.pending)
	if err != nil {
		slog.Warn("engine: close failed, position remains flagged",
			"cycle", shortID(e.pending.Pos.ID), "err", err)
		return
	}

	p := e.pending
	e.pending = nil
	e.record(ctx, p, outcome)
	e.setState(domain.StateRecorded)
	e.setState(domain.StateIdle)
}

// record applies a completed cycle to the ledger, persists everything,
// and finally moves the movement baseline (only here, never earlier).
func (e *Engine) record(ctx context.Context, p *pendingClose, outcome domain.CycleOutcome) {
	e.mu.Lock()
	e.ledger.Record(outcome)
	ledger := e.ledger.Clone()
	e.mu.Unlock()

	if err := e.ledgers.Save(ctx, ledger); err != nil {
		slog.Warn("engine: ledger save failed, in-memory state stays authoritative", "err", err)
	}

	rec := domain.CycleRecord{
		CycleID:        outcome.CycleID,
		Instrument:     e.cfg.Instrument,
		Result:         domain.StateRecorded,
		Movement:       outcome.Movement,
		Spread:         p.Eval.Spread,
		Volume:         p.Pos.Volume,
		ExpectedProfit: p.Eval.ExpectedProfit,
		RealizedProfit: outcome.RealizedProfit,
		BuyLegProfit:   outcome.BuyLegProfit,
		SellLegProfit:  outcome.SellLegProfit,
		OpenedAt:       p.Pos.OpenedAt,
		ClosedAt:       outcome.ClosedAt,
	}
	e.saveCycle(ctx, rec)
	e.notifyCycle(ctx, rec, ledger)

	e.eval.CommitReference(p.CloseMid)

	slog.Info("engine: cycle recorded",
		"cycle", shortID(outcome.CycleID),
		"profit", fmt.Sprintf("$%.2f", outcome.RealizedProfit),
		"buy_leg", fmt.Sprintf("$%.2f", outcome.BuyLegProfit),
		"sell_leg", fmt.Sprintf("$%.2f", outcome.SellLegProfit),
		"total", fmt.Sprintf("$%.2f", ledger.TotalProfit),
	)
}

// recordAttempt books a cycle that opened a leg but realized nothing
// (second leg rejected, first leg unwound). Counts as a trade, not a win.
func (e *Engine) recordAttempt(ctx context.Context, res openResult, eval Evaluation) {
	e.mu.Lock()
	e.ledger.RecordAttempt()
	ledger := e.ledger.Clone()
	e.mu.Unlock()

	if err := e.ledgers.Save(ctx, ledger); err != nil {
		slog.Warn("engine: ledger save failed, in-memory state stays authoritative", "err", err)
	}

	now := time.Now().UTC()
	rec := domain.CycleRecord{
		CycleID:        res.CycleID,
		Instrument:     e.cfg.Instrument,
		Result:         domain.StateAborted,
		Movement:       eval.Movement,
		Spread:         eval.Spread,
		Volume:         eval.Lot,
		ExpectedProfit: eval.ExpectedProfit,
		OpenedAt:       now,
		ClosedAt:       now,
	}
	e.saveCycle(ctx, rec)
	e.notifyCycle(ctx, rec, ledger)
}

// shutdown drives a still-open position to CLOSING before the process
// exits. Best effort on a fresh deadline.
func (e *Engine) shutdown() {
	if e.pending == nil {
		return
	}
	slog.Warn("engine: position still open at shutdown, attempting close",
		"cycle", shortID(e.pending.Pos.ID))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownCloseTimeout)
	defer cancel()
	e.resumePendingClose(ctx)

	if e.pending != nil {
		slog.Error("engine: position could not be closed at shutdown — tickets remain open on the terminal",
			"buy_ticket", e.pending.Pos.BuyTicket,
			"sell_ticket", e.pending.Pos.SellTicket)
	}
}

// closeContext returns ctx unless it is already canceled (shutdown), in
// which case closing gets a fresh deadline: an open position must never
// be abandoned just because the run context died.
func (e *Engine) closeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() != nil {
		return context.WithTimeout(context.Background(), shutdownCloseTimeout)
	}
	return context.WithCancel(ctx)
}

// State returns the engine's current cycle state. Safe for concurrent
// readers (status printers); they must treat it as read-only.
func (e *Engine) State() domain.CycleState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// LedgerSnapshot returns a copy of the current totals for readers
// outside the cycle owner.
func (e *Engine) LedgerSnapshot() domain.Ledger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Clone()
}

func (e *Engine) setState(next domain.CycleState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.CanTransition(next) {
		slog.Debug("engine: unusual state transition", "from", e.state, "to", next)
	}
	e.state = next
}

func (e *Engine) setLedger(l domain.Ledger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger = l
}

func (e *Engine) saveCycle(ctx context.Context, rec domain.CycleRecord) {
	if e.cycles == nil {
		return
	}
	if err := e.cycles.SaveCycle(ctx, rec); err != nil {
		slog.Warn("engine: cycle history save failed", "cycle", shortID(rec.CycleID), "err", err)
	}
}

func (e *Engine) notifyCycle(ctx context.Context, rec domain.CycleRecord, ledger domain.Ledger) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyCycle(ctx, rec, ledger); err != nil {
		slog.Warn("engine: notifier error", "err", err)
	}
}

func (e *Engine) notifySkip(ctx context.Context, reason string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifySkip(ctx, reason); err != nil {
		slog.Warn("engine: notifier error", "err", err)
	}
}
