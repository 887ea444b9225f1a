// Package engine translates direct-manipulation intents ("move ref X onto
// commit Y") into validated, safely executed Git mutations.
//
// Every intent flows through the same state machine:
//
//	Received → Validating → {Rejected | Planned} → Executing →
//	{Committed | Conflicted | Failed | RolledBack}
//
// Validation checks graph-level feasibility without touching the backend and
// produces a Plan: an ordered list of backend steps plus a precomputed
// rollback plan. Execution is serialized per repository (a single writer) and
// rolls the repository back to its pre-execution ref state if any step fails,
// so the rest of the system never observes a partially applied operation.
package engine
