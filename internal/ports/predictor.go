package ports

// Direction is a predicted price direction hint.
type Direction int

const (
	DirectionNone Direction = 0
	DirectionUp   Direction = 1
	DirectionDown Direction = -1
)

// Predictor is an optional direction hint the evaluator may consult.
// Pure function of the features it is given; the straddle opens both legs
// regardless, so the hint only ever annotates, never gates, a cycle.
type Predictor interface {
	// Predict returns a direction and a confidence in [0,1] from the
	// recent mid prices, oldest first.
	Predict(mids []float64) (Direction, float64)
}
