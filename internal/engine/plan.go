package engine

import (
	"context"
	"fmt"

	twerrors "twiggy.dev/twiggy/internal/errors"
	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/model"
)

// StepStatus is the per-step outcome distinguishing clean completion from a
// conflict that pauses the operation for external resolution
type StepStatus int

const (
	// StepOK indicates the step completed
	StepOK StepStatus = iota
	// StepConflict indicates the step stopped with textual conflicts
	StepConflict
)

// Step is one backend call of a plan. Undo reverses the step's effect and is
// nil when the step leaves nothing to reverse.
type Step struct {
	Desc string
	Run  func(ctx context.Context) (StepStatus, error)
	Undo func(ctx context.Context) error
}

// Plan is the validated, executable form of an intent: an ordered list of
// backend steps, each carrying its own rollback action.
type Plan struct {
	Intent Intent

	// AlreadySatisfied marks an intent whose outcome is already in place;
	// executing such a plan performs no backend calls.
	AlreadySatisfied bool

	// RefState is the ref state expected after successful execution.
	// Deleted refs map to the empty string.
	RefState map[string]string

	steps []Step
}

// Steps returns the planned backend calls
func (p *Plan) Steps() []Step {
	return p.steps
}

// Validate checks graph-level feasibility of an intent and produces a plan.
// No backend call is made: every check runs against the in-memory graph, so
// a rejected intent costs nothing. Race safety comes from the plan itself:
// every ref mutation carries the expected old value, and a concurrent
// external change surfaces as a failed compare-and-swap during execution.
func (e *Engine) Validate(intent Intent, g *model.Graph) (*Plan, error) {
	switch intent.Kind {
	case KindCreateBranch:
		return e.planCreateBranch(intent, g)
	case KindDeleteBranch:
		return e.planDeleteBranch(intent, g)
	case KindFastForward:
		return e.planFastForward(intent, g)
	case KindMerge:
		return e.planMerge(intent, g)
	case KindRebase:
		return e.planRebase(intent, g)
	case KindCherryPick:
		return e.planCherryPick(intent, g)
	case KindReset:
		return e.planReset(intent, g)
	}
	return nil, twerrors.NewValidationError(intent.Kind.String(), "unknown operation kind")
}

func (e *Engine) planCreateBranch(intent Intent, g *model.Graph) (*Plan, error) {
	name := intent.Source
	if name == "" {
		return nil, twerrors.NewValidationError("create-branch", "branch name is empty")
	}

	targetHash, ok := g.Resolve(intent.Target)
	if !ok {
		return nil, twerrors.NewValidationError("create-branch", fmt.Sprintf("target %s not found", intent.Target))
	}

	if existing, ok := g.Branch(name); ok {
		if existing.Hash == targetHash {
			return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(name, targetHash)}, nil
		}
		return nil, twerrors.NewValidationError("create-branch", fmt.Sprintf("branch %s already exists", name))
	}

	backend := e.backend
	plan := &Plan{Intent: intent, RefState: refState(name, targetHash)}
	plan.steps = append(plan.steps, Step{
		Desc: fmt.Sprintf("create branch %s at %s", name, shortHash(targetHash)),
		Run: func(ctx context.Context) (StepStatus, error) {
			return StepOK, backend.CreateBranch(ctx, name, targetHash)
		},
		Undo: func(ctx context.Context) error {
			return backend.DeleteRef(ctx, "refs/heads/"+name, targetHash)
		},
	})
	return plan, nil
}

func (e *Engine) planDeleteBranch(intent Intent, g *model.Graph) (*Plan, error) {
	name := intent.Source

	branch, ok := g.Branch(name)
	if !ok {
		return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(name, "")}, nil
	}

	head := g.Head()
	if !head.Detached && head.Branch == name {
		return nil, twerrors.NewValidationError("delete-branch", fmt.Sprintf("%s is the checked-out branch", name))
	}

	oldHash := branch.Hash
	backend := e.backend
	plan := &Plan{Intent: intent, RefState: refState(name, "")}
	plan.steps = append(plan.steps, Step{
		Desc: fmt.Sprintf("delete branch %s", name),
		Run: func(ctx context.Context) (StepStatus, error) {
			return StepOK, backend.DeleteRef(ctx, "refs/heads/"+name, oldHash)
		},
		Undo: func(ctx context.Context) error {
			return backend.UpdateRef(ctx, "refs/heads/"+name, oldHash, git.ZeroHash)
		},
	})
	return plan, nil
}

func (e *Engine) planFastForward(intent Intent, g *model.Graph) (*Plan, error) {
	branch, ok := g.Branch(intent.Source)
	if !ok {
		return nil, twerrors.NewValidationError("fast-forward", fmt.Sprintf("branch %s not found", intent.Source))
	}

	targetHash, ok := g.Resolve(intent.Target)
	if !ok {
		return nil, twerrors.NewValidationError("fast-forward", fmt.Sprintf("target %s not found", intent.Target))
	}

	if branch.Hash == targetHash {
		return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(branch.Name, targetHash)}, nil
	}

	reachable, err := g.IsAncestor(branch.Hash, targetHash)
	if err != nil {
		return nil, err
	}
	if !reachable {
		return nil, twerrors.NewValidationError("fast-forward",
			fmt.Sprintf("%s is not a descendant of %s", intent.Target, intent.Source))
	}

	plan := &Plan{Intent: intent, RefState: refState(branch.Name, targetHash)}
	plan.steps = append(plan.steps, e.moveBranchStep(g, branch.Name, branch.Hash, targetHash))
	return plan, nil
}

func (e *Engine) planMerge(intent Intent, g *model.Graph) (*Plan, error) {
	target, ok := g.Branch(intent.Target)
	if !ok {
		return nil, twerrors.NewValidationError("merge", fmt.Sprintf("target branch %s not found", intent.Target))
	}

	sourceHash, ok := g.Resolve(intent.Source)
	if !ok {
		return nil, twerrors.NewValidationError("merge", fmt.Sprintf("source %s not found", intent.Source))
	}

	merged, err := g.IsAncestor(sourceHash, target.Hash)
	if err != nil {
		return nil, err
	}
	if merged {
		return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(target.Name, target.Hash)}, nil
	}

	fastForwardable, err := g.IsAncestor(target.Hash, sourceHash)
	if err != nil {
		return nil, err
	}
	if intent.FFOnly && !fastForwardable {
		return nil, twerrors.NewValidationError("merge",
			fmt.Sprintf("%s is not fast-forwardable to %s and only-fast-forward was requested", target.Name, intent.Source))
	}

	if fastForwardable && !intent.NoFF {
		plan := &Plan{Intent: intent, RefState: refState(target.Name, sourceHash)}
		plan.steps = append(plan.steps, e.moveBranchStep(g, target.Name, target.Hash, sourceHash))
		return plan, nil
	}

	// A true merge needs the target checked out; the merge commit hash is
	// only known after the backend runs, so RefState carries no prediction.
	backend := e.backend
	oldTarget := target.Hash
	plan := &Plan{Intent: intent, RefState: map[string]string{}}
	plan.steps = append(plan.steps, e.checkoutSteps(g, target.Name)...)
	plan.steps = append(plan.steps, Step{
		Desc: fmt.Sprintf("merge %s into %s", intent.Source, target.Name),
		Run: func(ctx context.Context) (StepStatus, error) {
			result, err := backend.Merge(ctx, sourceHash, git.MergeOptions{
				NoFF:    intent.NoFF,
				FFOnly:  intent.FFOnly,
				Message: fmt.Sprintf("Merge %s into %s", intent.Source, target.Name),
			})
			if err != nil {
				return StepOK, err
			}
			if result == git.MergeConflict {
				return StepConflict, nil
			}
			return StepOK, nil
		},
		Undo: func(ctx context.Context) error {
			return backend.HardReset(ctx, oldTarget)
		},
	})
	return plan, nil
}

func (e *Engine) planRebase(intent Intent, g *model.Graph) (*Plan, error) {
	branch, ok := g.Branch(intent.Source)
	if !ok {
		return nil, twerrors.NewValidationError("rebase", fmt.Sprintf("branch %s not found", intent.Source))
	}

	ontoHash, ok := g.Resolve(intent.Target)
	if !ok {
		return nil, twerrors.NewValidationError("rebase", fmt.Sprintf("target %s not found", intent.Target))
	}

	if branch.Hash == ontoHash || intent.Source == intent.Target {
		return nil, twerrors.NewValidationError("rebase", "source and target are the same")
	}

	// Already based on the target: nothing to replay
	upToDate, err := g.IsAncestor(ontoHash, branch.Hash)
	if err != nil {
		return nil, err
	}
	if upToDate {
		return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(branch.Name, branch.Hash)}, nil
	}

	backend := e.backend
	oldHash := branch.Hash
	name := branch.Name
	plan := &Plan{Intent: intent, RefState: map[string]string{}}
	plan.steps = append(plan.steps, Step{
		Desc: fmt.Sprintf("rebase %s onto %s", name, intent.Target),
		Run: func(ctx context.Context) (StepStatus, error) {
			result, err := backend.Rebase(ctx, name, ontoHash)
			if err != nil {
				return StepOK, err
			}
			if result == git.RebaseConflict {
				return StepConflict, nil
			}
			return StepOK, nil
		},
		Undo: func(ctx context.Context) error {
			return backend.UpdateRef(ctx, "refs/heads/"+name, oldHash, "")
		},
	})
	return plan, nil
}

func (e *Engine) planCherryPick(intent Intent, g *model.Graph) (*Plan, error) {
	commitHash, ok := g.Resolve(intent.Source)
	if !ok {
		return nil, twerrors.NewValidationError("cherry-pick", fmt.Sprintf("commit %s not found", intent.Source))
	}
	commit, ok := g.Commit(commitHash)
	if !ok {
		return nil, twerrors.NewValidationError("cherry-pick", fmt.Sprintf("commit %s not found", intent.Source))
	}
	if len(commit.Parents) > 1 {
		return nil, twerrors.NewValidationError("cherry-pick", fmt.Sprintf("%s is a merge commit", commit.ShortHash()))
	}

	target, ok := g.Branch(intent.Target)
	if !ok {
		return nil, twerrors.NewValidationError("cherry-pick", fmt.Sprintf("target branch %s not found", intent.Target))
	}

	applied, err := g.IsAncestor(commitHash, target.Hash)
	if err != nil {
		return nil, err
	}
	if applied {
		return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(target.Name, target.Hash)}, nil
	}

	backend := e.backend
	oldTarget := target.Hash
	plan := &Plan{Intent: intent, RefState: map[string]string{}}
	plan.steps = append(plan.steps, e.checkoutSteps(g, target.Name)...)
	plan.steps = append(plan.steps, Step{
		Desc: fmt.Sprintf("cherry-pick %s onto %s", commit.ShortHash(), target.Name),
		Run: func(ctx context.Context) (StepStatus, error) {
			result, err := backend.CherryPick(ctx, commitHash)
			if err != nil {
				return StepOK, err
			}
			if result == git.CherryPickConflict {
				return StepConflict, nil
			}
			return StepOK, nil
		},
		Undo: func(ctx context.Context) error {
			return backend.HardReset(ctx, oldTarget)
		},
	})
	return plan, nil
}

func (e *Engine) planReset(intent Intent, g *model.Graph) (*Plan, error) {
	branch, ok := g.Branch(intent.Source)
	if !ok {
		return nil, twerrors.NewValidationError("reset", fmt.Sprintf("branch %s not found", intent.Source))
	}

	targetHash, ok := g.Resolve(intent.Target)
	if !ok {
		return nil, twerrors.NewValidationError("reset", fmt.Sprintf("target %s not found", intent.Target))
	}

	if branch.Hash == targetHash {
		return &Plan{Intent: intent, AlreadySatisfied: true, RefState: refState(branch.Name, targetHash)}, nil
	}

	backend := e.backend
	head := g.Head()
	oldHash := branch.Hash
	name := branch.Name
	plan := &Plan{Intent: intent, RefState: refState(name, targetHash)}

	if !head.Detached && head.Branch == name {
		// The checked-out branch must move through git reset so the index
		// and worktree follow the ref
		reset := backend.SoftReset
		undo := backend.SoftReset
		if intent.Hard {
			reset = backend.HardReset
			undo = backend.HardReset
		}
		plan.steps = append(plan.steps, Step{
			Desc: fmt.Sprintf("reset %s to %s", name, shortHash(targetHash)),
			Run: func(ctx context.Context) (StepStatus, error) {
				return StepOK, reset(ctx, targetHash)
			},
			Undo: func(ctx context.Context) error {
				return undo(ctx, oldHash)
			},
		})
		return plan, nil
	}

	plan.steps = append(plan.steps, Step{
		Desc: fmt.Sprintf("move %s to %s", name, shortHash(targetHash)),
		Run: func(ctx context.Context) (StepStatus, error) {
			return StepOK, backend.UpdateRef(ctx, "refs/heads/"+name, targetHash, oldHash)
		},
		Undo: func(ctx context.Context) error {
			return backend.UpdateRef(ctx, "refs/heads/"+name, oldHash, targetHash)
		},
	})
	return plan, nil
}

// moveBranchStep builds the single step that fast-forwards a branch ref.
// The checked-out branch moves through git merge --ff-only so the worktree
// follows; any other branch moves with a compare-and-swap ref update.
func (e *Engine) moveBranchStep(g *model.Graph, name, oldHash, newHash string) Step {
	backend := e.backend
	head := g.Head()

	if !head.Detached && head.Branch == name {
		return Step{
			Desc: fmt.Sprintf("fast-forward %s to %s", name, shortHash(newHash)),
			Run: func(ctx context.Context) (StepStatus, error) {
				_, err := backend.Merge(ctx, newHash, git.MergeOptions{FFOnly: true})
				return StepOK, err
			},
			Undo: func(ctx context.Context) error {
				return backend.HardReset(ctx, oldHash)
			},
		}
	}

	return Step{
		Desc: fmt.Sprintf("fast-forward %s to %s", name, shortHash(newHash)),
		Run: func(ctx context.Context) (StepStatus, error) {
			return StepOK, backend.UpdateRef(ctx, "refs/heads/"+name, newHash, oldHash)
		},
		Undo: func(ctx context.Context) error {
			return backend.UpdateRef(ctx, "refs/heads/"+name, oldHash, newHash)
		},
	}
}

// checkoutSteps returns the step that puts the worktree on the given branch,
// or nothing when it is already checked out
func (e *Engine) checkoutSteps(g *model.Graph, name string) []Step {
	head := g.Head()
	if !head.Detached && head.Branch == name {
		return nil
	}

	backend := e.backend
	restore := func(ctx context.Context) error {
		if head.Detached && head.Hash != "" {
			return backend.CheckoutDetached(ctx, head.Hash)
		}
		if head.Branch != "" {
			return backend.CheckoutBranch(ctx, head.Branch)
		}
		return nil
	}

	return []Step{{
		Desc: fmt.Sprintf("checkout %s", name),
		Run: func(ctx context.Context) (StepStatus, error) {
			return StepOK, backend.CheckoutBranch(ctx, name)
		},
		Undo: restore,
	}}
}

func refState(name, hash string) map[string]string {
	return map[string]string{name: hash}
}

func shortHash(hash string) string {
	if len(hash) < 7 {
		return hash
	}
	return hash[:7]
}
