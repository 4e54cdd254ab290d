package predict

import (
	"math"

	"github.com/rgonzalo/straddlebot/internal/ports"
)

const defaultWindow = 10

// Momentum is a minimal ports.Predictor: it compares the latest mid
// against the average of the recent window. The straddle opens both legs
// either way; the hint is advisory, recorded in logs only.
type Momentum struct {
	window int
}

// NewMomentum creates a predictor over the given number of recent mids.
func NewMomentum(window int) *Momentum {
	if window <= 1 {
		window = defaultWindow
	}
	return &Momentum{window: window}
}

// Predict returns the direction of the latest mid relative to the recent
// average, with confidence scaled by how far it has drifted.
func (m *Momentum) Predict(mids []float64) (ports.Direction, float64) {
	if len(mids) < 2 {
		return ports.DirectionNone, 0
	}

	window := mids
	if len(window) > m.window {
		window = window[len(window)-m.window:]
	}

	var sum float64
	for _, v := range window[:len(window)-1] {
		sum += v
	}
	avg := sum / float64(len(window)-1)
	last := window[len(window)-1]

	if avg == 0 || last == avg {
		return ports.DirectionNone, 0
	}

	// Drift of 0.1% of price maps to full confidence.
	drift := (last - avg) / avg
	confidence := math.Min(1, math.Abs(drift)/0.001)

	if drift > 0 {
		return ports.DirectionUp, confidence
	}
	return ports.DirectionDown, confidence
}
