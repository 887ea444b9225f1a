package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CherryPickResult represents the result of a cherry-pick operation
type CherryPickResult int

const (
	// CherryPickDone indicates the commit was applied
	CherryPickDone CherryPickResult = iota
	// CherryPickConflict indicates the cherry-pick stopped with conflicts
	CherryPickConflict
)

// CherryPick applies the given commit onto the currently checked-out branch.
// On conflict the cherry-pick is left in progress for external resolution
// and CherryPickConflict is returned with a nil error.
func (r *Repository) CherryPick(ctx context.Context, hash string) (CherryPickResult, error) {
	_, err := r.runner.Run(ctx, "cherry-pick", hash)
	if err != nil {
		if r.IsCherryPickInProgress(ctx) {
			return CherryPickConflict, nil
		}
		return CherryPickConflict, fmt.Errorf("cherry-pick of %s failed: %w", hash, err)
	}
	return CherryPickDone, nil
}

// CherryPickAbort aborts an in-progress cherry-pick
func (r *Repository) CherryPickAbort(ctx context.Context) error {
	_, err := r.runner.Run(ctx, "cherry-pick", "--abort")
	if err != nil {
		return fmt.Errorf("cherry-pick abort failed: %w", err)
	}
	return nil
}

// IsCherryPickInProgress checks whether a cherry-pick has stopped with conflicts
func (r *Repository) IsCherryPickInProgress(ctx context.Context) bool {
	gitDir, err := r.GitDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(gitDir, "CHERRY_PICK_HEAD"))
	return err == nil
}
