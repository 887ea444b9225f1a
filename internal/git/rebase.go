package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RebaseResult represents the result of a rebase operation
type RebaseResult int

const (
	// RebaseDone indicates the rebase was successful
	RebaseDone RebaseResult = iota
	// RebaseConflict indicates a conflict occurred during rebase
	RebaseConflict
)

// Rebase rebases branchName onto the given revision.
//
// The rebase runs on a detached HEAD so it never fails with "already used by
// worktree" errors; on success the branch ref is moved to the rebased tip and
// the previous checkout is restored. On conflict the rebase is left in
// progress for external resolution and RebaseConflict is returned with a nil
// error.
func (r *Repository) Rebase(ctx context.Context, branchName, onto string) (RebaseResult, error) {
	head, err := r.readHead()
	if err != nil {
		return RebaseConflict, err
	}

	branchRev, err := r.runner.Run(ctx, "rev-parse", "refs/heads/"+branchName)
	if err != nil {
		return RebaseConflict, fmt.Errorf("failed to get revision for %s: %w", branchName, err)
	}

	// git rebase --onto <onto> <mergebase> <branchRev> leaves a detached HEAD
	// at the rebased commit
	base, err := r.MergeBase(branchRev, onto)
	if err != nil {
		return RebaseConflict, err
	}

	_, err = r.runner.Run(ctx, "rebase", "--onto", onto, base, branchRev)
	if err != nil {
		if r.IsRebaseInProgress(ctx) {
			return RebaseConflict, nil
		}
		_, _ = r.runner.Run(ctx, "rebase", "--abort")
		r.restoreHead(ctx, head)
		return RebaseConflict, fmt.Errorf("rebase of %s onto %s failed: %w", branchName, onto, err)
	}

	newRev, err := r.runner.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return RebaseConflict, fmt.Errorf("failed to get new revision after rebase: %w", err)
	}

	if err := r.UpdateRef(ctx, "refs/heads/"+branchName, newRev, branchRev); err != nil {
		return RebaseConflict, err
	}

	r.restoreHead(ctx, head)
	return RebaseDone, nil
}

// restoreHead returns the checkout to where it was before a detached-HEAD operation
func (r *Repository) restoreHead(ctx context.Context, head Head) {
	switch {
	case head.Branch != "" && !head.Unborn:
		_ = r.CheckoutBranch(ctx, head.Branch)
	case head.Hash != "":
		_ = r.CheckoutDetached(ctx, head.Hash)
	}
}

// IsRebaseInProgress checks if a rebase is currently in progress.
// Checks for the rebase-merge and rebase-apply directories, which is more
// reliable than REBASE_HEAD (it can persist after the rebase finishes).
func (r *Repository) IsRebaseInProgress(ctx context.Context) bool {
	gitDir, err := r.GitDir()
	if err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-merge")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return true
	}
	return false
}

// RebaseAbort aborts an in-progress rebase
func (r *Repository) RebaseAbort(ctx context.Context) error {
	_, err := r.runner.Run(ctx, "rebase", "--abort")
	if err != nil {
		return fmt.Errorf("rebase abort failed: %w", err)
	}
	return nil
}

// RebaseContinue continues an in-progress rebase after conflicts were resolved
func (r *Repository) RebaseContinue(ctx context.Context) (RebaseResult, error) {
	_, err := r.runner.Run(ctx, "-c", "core.editor=true", "rebase", "--continue")
	if err != nil {
		if r.IsRebaseInProgress(ctx) {
			return RebaseConflict, nil
		}
		return RebaseConflict, fmt.Errorf("rebase continue failed: %w", err)
	}
	return RebaseDone, nil
}
