package engine

import (
	"context"
	"sync"
	"time"

	twerrors "twiggy.dev/twiggy/internal/errors"
	"twiggy.dev/twiggy/internal/git"
)

// rollbackTimeout bounds the rollback plan independently of the caller's
// context, which may already be expired when rollback starts
const rollbackTimeout = 2 * time.Minute

// Engine validates and executes operation intents against one repository.
// Executions are serialized: at most one plan runs at a time, and a second
// submission queues behind the first rather than interleaving, because
// concurrent Git writes to the same repository are unsafe.
type Engine struct {
	backend git.Backend
	mu      sync.Mutex
}

// New creates an engine for the given repository backend
func New(backend git.Backend) *Engine {
	return &Engine{backend: backend}
}

// Backend returns the repository backend the engine executes against
func (e *Engine) Backend() git.Backend {
	return e.backend
}

// Execute runs a validated plan. The caller's context bounds every backend
// call; cancellation is honored until the first backend call starts, after
// which the plan (or its rollback) runs to completion so refs are never left
// partially applied.
func (e *Engine) Execute(ctx context.Context, plan *Plan) Result {
	result := Result{Intent: plan.Intent, RefState: plan.RefState}

	if plan.AlreadySatisfied {
		result.State = StateCommitted
		result.AlreadySatisfied = true
		return result
	}

	// Queue behind any in-flight execution
	e.mu.Lock()
	defer e.mu.Unlock()

	// Still cancelable: no backend call has been made
	if err := ctx.Err(); err != nil {
		result.State = StateCanceled
		return result
	}

	result.State = StateExecuting
	for i, step := range plan.steps {
		status, err := step.Run(ctx)
		if err != nil {
			execErr := twerrors.NewExecutionError(step.Desc, i, true, err)
			if rollbackErr := e.rollback(plan.steps[:i]); rollbackErr != nil {
				execErr.RolledBack = false
				result.State = StateRolledBack
				result.Err = execErr
				return result
			}
			result.State = StateFailed
			result.Err = execErr
			result.RefState = nil
			return result
		}

		if status == StepConflict {
			paths, pathErr := e.backend.ConflictedPaths(context.Background())
			if pathErr == nil {
				result.ConflictPaths = paths
			}
			result.State = StateConflicted
			return result
		}
	}

	result.State = StateCommitted
	return result
}

// rollback undoes completed steps in reverse order
func (e *Engine) rollback(completed []Step) error {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	for i := len(completed) - 1; i >= 0; i-- {
		if completed[i].Undo == nil {
			continue
		}
		if err := completed[i].Undo(ctx); err != nil {
			return err
		}
	}
	return nil
}
