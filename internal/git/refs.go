package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	twerrors "twiggy.dev/twiggy/internal/errors"
)

// ZeroHash is the all-zero hash git uses to mean "ref must not exist"
const ZeroHash = "0000000000000000000000000000000000000000"

// UpdateRef updates a ref to newHash with compare-and-swap semantics:
// the update fails with ErrStaleRef if the ref no longer points at oldHash.
// Passing ZeroHash as oldHash requires the ref to not exist (creation).
func (r *Repository) UpdateRef(ctx context.Context, name, newHash, oldHash string) error {
	args := []string{"update-ref", name, newHash}
	if oldHash != "" {
		args = append(args, oldHash)
	}
	_, err := r.runner.Run(ctx, args...)
	if err != nil {
		if isRefLockFailure(err) {
			return fmt.Errorf("update %s: %w", name, twerrors.ErrStaleRef)
		}
		return fmt.Errorf("failed to update ref %s: %w", name, err)
	}
	return nil
}

// DeleteRef deletes a ref, failing with ErrStaleRef if it no longer
// points at oldHash
func (r *Repository) DeleteRef(ctx context.Context, name, oldHash string) error {
	args := []string{"update-ref", "-d", name}
	if oldHash != "" {
		args = append(args, oldHash)
	}
	_, err := r.runner.Run(ctx, args...)
	if err != nil {
		if isRefLockFailure(err) {
			return fmt.Errorf("delete %s: %w", name, twerrors.ErrStaleRef)
		}
		return fmt.Errorf("failed to delete ref %s: %w", name, err)
	}
	return nil
}

// CreateBranch creates a new branch at the given commit without checking it out
func (r *Repository) CreateBranch(ctx context.Context, name, hash string) error {
	return r.UpdateRef(ctx, "refs/heads/"+name, hash, ZeroHash)
}

// CheckoutBranch checks out an existing branch
func (r *Repository) CheckoutBranch(ctx context.Context, name string) error {
	_, err := r.runner.Run(ctx, "checkout", name)
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// CheckoutDetached checks out a revision in detached HEAD state
func (r *Repository) CheckoutDetached(ctx context.Context, rev string) error {
	_, err := r.runner.Run(ctx, "checkout", "--detach", rev)
	if err != nil {
		return fmt.Errorf("failed to checkout %s in detached state: %w", rev, err)
	}
	return nil
}

// HardReset performs a hard reset to a specific revision
func (r *Repository) HardReset(ctx context.Context, rev string) error {
	_, err := r.runner.Run(ctx, "reset", "--hard", rev)
	if err != nil {
		return fmt.Errorf("failed to hard reset to %s: %w", rev, err)
	}
	return nil
}

// SoftReset performs a soft reset to a specific revision
func (r *Repository) SoftReset(ctx context.Context, rev string) error {
	_, err := r.runner.Run(ctx, "reset", "-q", "--soft", rev)
	if err != nil {
		return fmt.Errorf("failed to soft reset to %s: %w", rev, err)
	}
	return nil
}

// isRefLockFailure reports whether a git error is an update-ref
// compare-and-swap failure rather than an I/O problem
func isRefLockFailure(err error) bool {
	var cmdErr *twerrors.GitCommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return strings.Contains(cmdErr.Stderr, "but expected") ||
		strings.Contains(cmdErr.Stderr, "cannot lock ref") ||
		strings.Contains(cmdErr.Stderr, "already exists")
}
