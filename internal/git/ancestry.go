package git

import (
	"fmt"
)

// MergeBase returns the merge base between two revisions. When multiple
// candidates exist the first one go-git reports is returned; callers that
// need a reproducible tie-break should use the graph model instead.
func (r *Repository) MergeBase(rev1, rev2 string) (string, error) {
	hash1, err := r.resolveHash(rev1)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev1, err)
	}
	hash2, err := r.resolveHash(rev2)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev2, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	commit1, err := r.CommitObject(hash1)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s: %w", hash1, err)
	}
	commit2, err := r.CommitObject(hash2)
	if err != nil {
		return "", fmt.Errorf("failed to get commit %s: %w", hash2, err)
	}

	mergeBases, err := commit1.MergeBase(commit2)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(mergeBases) == 0 {
		return "", fmt.Errorf("no merge base between %s and %s", rev1, rev2)
	}

	return mergeBases[0].Hash.String(), nil
}

// IsAncestor checks if the first revision is an ancestor of the second
func (r *Repository) IsAncestor(ancestor, descendant string) (bool, error) {
	ancestorHash, err := r.resolveHash(ancestor)
	if err != nil {
		return false, fmt.Errorf("failed to resolve ancestor: %w", err)
	}
	descendantHash, err := r.resolveHash(descendant)
	if err != nil {
		return false, fmt.Errorf("failed to resolve descendant: %w", err)
	}

	if ancestorHash == descendantHash {
		return true, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ancestorCommit, err := r.CommitObject(ancestorHash)
	if err != nil {
		return false, fmt.Errorf("failed to get ancestor commit: %w", err)
	}
	descendantCommit, err := r.CommitObject(descendantHash)
	if err != nil {
		return false, fmt.Errorf("failed to get descendant commit: %w", err)
	}

	return ancestorCommit.IsAncestor(descendantCommit)
}
