package engine

// Kind enumerates the mutations the engine knows how to plan and execute
type Kind int

const (
	// KindCreateBranch creates a new local branch at a commit
	KindCreateBranch Kind = iota
	// KindDeleteBranch deletes a local branch
	KindDeleteBranch
	// KindFastForward moves a branch forward along an ancestor chain
	KindFastForward
	// KindMerge merges a source ref or commit into a target branch
	KindMerge
	// KindRebase rebases a branch onto a commit
	KindRebase
	// KindCherryPick applies a single commit onto a branch
	KindCherryPick
	// KindReset moves a branch to an arbitrary commit
	KindReset
)

func (k Kind) String() string {
	switch k {
	case KindCreateBranch:
		return "create-branch"
	case KindDeleteBranch:
		return "delete-branch"
	case KindFastForward:
		return "fast-forward"
	case KindMerge:
		return "merge"
	case KindRebase:
		return "rebase"
	case KindCherryPick:
		return "cherry-pick"
	case KindReset:
		return "reset"
	}
	return "unknown"
}

// Intent is a requested mutation, created by the presentation layer from a
// gesture and consumed exactly once by the engine.
//
// Source and Target are ref short names or commit hashes; their meaning
// depends on the kind:
//
//	create-branch: Source = new branch name, Target = commit to branch from
//	delete-branch: Source = branch name
//	fast-forward:  Source = branch to move, Target = destination commit
//	merge:         Source = ref/commit to merge, Target = receiving branch
//	rebase:        Source = branch to rebase, Target = new base
//	cherry-pick:   Source = commit to apply, Target = receiving branch
//	reset:         Source = branch to move, Target = destination commit
type Intent struct {
	Kind   Kind
	Source string
	Target string

	// Merge options
	FFOnly bool // refuse anything but a fast-forward
	NoFF   bool // always create a merge commit

	// Reset options
	Hard bool // reset the worktree too when moving the checked-out branch
}
