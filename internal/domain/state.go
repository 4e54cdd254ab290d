package domain

// CycleState is the position of one straddle cycle in its lifecycle.
//
//	IDLE → EVALUATING → OPENING → OPEN → CLOSING → {RECORDED | ABORTED}
//
// ABORTED is reachable only from OPENING (a leg failed to open) and goes
// back to IDLE without touching profit totals. RECORDED always returns to
// IDLE. No second OPENING may begin before the previous cycle is back at
// IDLE.
type CycleState string

const (
	StateIdle       CycleState = "IDLE"
	StateEvaluating CycleState = "EVALUATING"
	StateOpening    CycleState = "OPENING"
	StateOpen       CycleState = "OPEN"
	StateClosing    CycleState = "CLOSING"
	StateRecorded   CycleState = "RECORDED"
	StateAborted    CycleState = "ABORTED"
)

// CanTransition reports whether moving from s to next is a legal step of
// the cycle state machine.
func (s CycleState) CanTransition(next CycleState) bool {
	switch s {
	case StateIdle:
		return next == StateEvaluating
	case StateEvaluating:
		return next == StateOpening || next == StateIdle
	case StateOpening:
		return next == StateOpen || next == StateAborted
	case StateOpen:
		return next == StateClosing
	case StateClosing:
		return next == StateRecorded || next == StateClosing
	case StateRecorded, StateAborted:
		return next == StateIdle
	}
	return false
}

// InFlight reports whether a cycle in this state holds or may hold an
// open position, which blocks any new cycle from starting.
func (s CycleState) InFlight() bool {
	return s == StateOpening || s == StateOpen || s == StateClosing
}
