package engine

import (
	"fmt"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/rgonzalo/straddlebot/internal/ports"
)

// midHistoryCap bounds the mid-price history kept for the predictor.
const midHistoryCap = 64

// Evaluation is the entry decision for one poll.
type Evaluation struct {
	Open           bool
	Reason         string // human-readable rejection reason when !Open
	Movement       float64
	Spread         float64
	ExpectedProfit float64
	Lot            float64
	Hint           ports.Direction
	HintConfidence float64
}

// evaluator decides whether the latest snapshot justifies opening a
// straddle. It owns the reference mid price: the baseline is seeded on
// the first observation and moves only when the engine commits it after
// a recorded cycle, so rejected or failed cycles keep comparing against
// the same baseline.
type evaluator struct {
	cfg       Config
	reference float64
	seeded    bool
	mids      []float64
	predictor ports.Predictor
}

func newEvaluator(cfg Config, predictor ports.Predictor) *evaluator {
	return &evaluator{cfg: cfg, predictor: predictor}
}

// Evaluate applies the entry conditions in order: spread gate, baseline
// seeding, movement threshold, expected-profit threshold.
func (ev *evaluator) Evaluate(snap domain.Snapshot) Evaluation {
	mid := snap.Mid()
	spread := snap.Spread()
	ev.pushMid(mid)

	if spread > ev.cfg.MaxSpread {
		return Evaluation{Reason: fmt.Sprintf("spread %.5f above max %.5f", spread, ev.cfg.MaxSpread)}
	}

	if !ev.seeded {
		ev.reference = mid
		ev.seeded = true
		return Evaluation{Reason: "first observation — movement baseline recorded"}
	}

	movement := abs(mid - ev.reference)
	if movement < ev.cfg.MinMovement {
		return Evaluation{
			Reason:   fmt.Sprintf("movement %.5f below min %.5f", movement, ev.cfg.MinMovement),
			Movement: movement,
		}
	}

	lot := ev.cfg.LotSize * ev.cfg.LotMultiplier
	expected := domain.GuaranteedFloor(movement, spread, lot) * ev.cfg.ProfitRatio
	if expected < ev.cfg.MinProfitPerTrade {
		return Evaluation{
			Reason:   fmt.Sprintf("expected profit $%.2f below min $%.2f", expected, ev.cfg.MinProfitPerTrade),
			Movement: movement,
		}
	}

	out := Evaluation{
		Open:           true,
		Movement:       movement,
		Spread:         spread,
		ExpectedProfit: expected,
		Lot:            lot,
	}
	if ev.predictor != nil {
		out.Hint, out.HintConfidence = ev.predictor.Predict(ev.mids)
	}
	return out
}

// CommitReference moves the movement baseline to the given mid.
// Called by the engine only after a cycle reaches RECORDED.
func (ev *evaluator) CommitReference(mid float64) {
	ev.reference = mid
	ev.seeded = true
}

// Reference returns the current baseline mid (0 before seeding).
func (ev *evaluator) Reference() float64 {
	return ev.reference
}

func (ev *evaluator) pushMid(mid float64) {
	ev.mids = append(ev.mids, mid)
	if len(ev.mids) > midHistoryCap {
		ev.mids = ev.mids[len(ev.mids)-midHistoryCap:]
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
