package engine

// State is a stage of the engine's per-intent state machine
type State int

const (
	// StateReceived is the initial state of a submitted intent
	StateReceived State = iota
	// StateValidating indicates graph-level feasibility checks are running
	StateValidating
	// StateRejected indicates validation failed; no backend call was made
	StateRejected
	// StatePlanned indicates a plan with rollback steps is ready
	StatePlanned
	// StateExecuting indicates backend calls are in flight
	StateExecuting
	// StateCommitted indicates the operation completed and refs moved
	StateCommitted
	// StateConflicted indicates the operation paused with textual conflicts
	// awaiting external resolution
	StateConflicted
	// StateFailed indicates a backend step failed and rollback completed
	StateFailed
	// StateRolledBack indicates rollback ran but could not fully restore state
	StateRolledBack
	// StateCanceled indicates the intent was canceled before any backend call
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidating:
		return "validating"
	case StateRejected:
		return "rejected"
	case StatePlanned:
		return "planned"
	case StateExecuting:
		return "executing"
	case StateCommitted:
		return "committed"
	case StateConflicted:
		return "conflicted"
	case StateFailed:
		return "failed"
	case StateRolledBack:
		return "rolled-back"
	case StateCanceled:
		return "canceled"
	}
	return "unknown"
}

// Result is the outcome record of one executed plan
type Result struct {
	Intent Intent
	State  State

	// RefState maps every ref the operation touched to its resulting hash.
	// Deleted refs map to the empty string.
	RefState map[string]string

	// ConflictPaths lists the conflicting files when State is StateConflicted
	ConflictPaths []string

	// Err carries the failure cause when State is StateFailed or StateRolledBack
	Err error

	// AlreadySatisfied marks a no-op execution of an intent whose outcome
	// was already in place
	AlreadySatisfied bool
}
