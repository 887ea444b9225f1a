// Package errors provides sentinel errors and custom error types for the twiggy core.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrConsistency indicates that a snapshot violates graph invariants
	ErrConsistency = errors.New("repository snapshot is inconsistent")

	// ErrValidation indicates that an operation intent is infeasible
	ErrValidation = errors.New("operation not feasible")

	// ErrExecution indicates that a backend call failed mid-operation
	ErrExecution = errors.New("backend execution failed")

	// ErrRefNotFound indicates that a ref does not exist in the graph
	ErrRefNotFound = errors.New("ref not found")

	// ErrCommitNotFound indicates that a commit hash is not in the graph
	ErrCommitNotFound = errors.New("commit not found")

	// ErrStaleRef indicates a compare-and-swap ref update lost a race
	// with a concurrent external change
	ErrStaleRef = errors.New("ref changed concurrently")
)

// ConsistencyError represents a snapshot that cannot be trusted as a graph:
// a dangling parent, a cycle detected during traversal, or a duplicate ref name.
type ConsistencyError struct {
	Reason string
	Hash   string // offending commit hash, if any
	Ref    string // offending ref name, if any
}

func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("inconsistent snapshot: %s", e.Reason)
	if e.Hash != "" {
		msg += fmt.Sprintf(" (commit %s)", e.Hash)
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" (ref %s)", e.Ref)
	}
	return msg
}

// Is returns true if the target error is ErrConsistency
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// NewConsistencyError creates a new ConsistencyError
func NewConsistencyError(reason, hash, ref string) *ConsistencyError {
	return &ConsistencyError{Reason: reason, Hash: hash, Ref: ref}
}

// ValidationError represents an intent that is infeasible against the current
// graph. No backend call has been made when this error is returned.
type ValidationError struct {
	Intent string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Intent, e.Reason)
}

// Is returns true if the target error is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(intent, reason string) *ValidationError {
	return &ValidationError{Intent: intent, Reason: reason}
}

// ExecutionError represents a backend call that failed while executing a plan.
// The engine has already run the rollback plan when this error surfaces.
type ExecutionError struct {
	Step       string // description of the failing plan step
	StepIndex  int
	RolledBack bool
	Err        error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("step %d (%s) failed", e.StepIndex, e.Step)
	if e.RolledBack {
		msg += ", changes rolled back"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrExecution
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// NewExecutionError creates a new ExecutionError
func NewExecutionError(step string, stepIndex int, rolledBack bool, err error) *ExecutionError {
	return &ExecutionError{
		Step:       step,
		StepIndex:  stepIndex,
		RolledBack: rolledBack,
		Err:        err,
	}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %s", strings.Join(e.Args, " "))
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
