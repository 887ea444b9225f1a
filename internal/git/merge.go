package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MergeResult represents the result of a merge operation
type MergeResult int

const (
	// MergeDone indicates the merge completed (merge commit created or fast-forwarded)
	MergeDone MergeResult = iota
	// MergeConflict indicates the merge stopped with textual conflicts
	MergeConflict
)

// MergeOptions controls how a merge is performed
type MergeOptions struct {
	// NoFF forces a merge commit even when the merge could fast-forward
	NoFF bool
	// FFOnly refuses the merge unless it is a fast-forward
	FFOnly bool
	// Message overrides the default merge commit message
	Message string
}

// Merge merges the given revision into the currently checked-out branch.
// On conflict the merge is left in progress for external resolution and
// MergeConflict is returned with a nil error.
func (r *Repository) Merge(ctx context.Context, rev string, opts MergeOptions) (MergeResult, error) {
	args := []string{"merge"}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.FFOnly {
		args = append(args, "--ff-only")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, rev)

	_, err := r.runner.Run(ctx, args...)
	if err != nil {
		if r.IsMergeInProgress(ctx) {
			return MergeConflict, nil
		}
		return MergeConflict, fmt.Errorf("merge of %s failed: %w", rev, err)
	}
	return MergeDone, nil
}

// MergeAbort aborts an in-progress merge
func (r *Repository) MergeAbort(ctx context.Context) error {
	_, err := r.runner.Run(ctx, "merge", "--abort")
	if err != nil {
		return fmt.Errorf("merge abort failed: %w", err)
	}
	return nil
}

// IsMergeInProgress checks whether a merge has stopped with conflicts
func (r *Repository) IsMergeInProgress(ctx context.Context) bool {
	gitDir, err := r.GitDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(gitDir, "MERGE_HEAD"))
	return err == nil
}

// ConflictedPaths returns the paths with unresolved conflicts
func (r *Repository) ConflictedPaths(ctx context.Context) ([]string, error) {
	lines, err := r.runner.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicted paths: %w", err)
	}
	return lines, nil
}
