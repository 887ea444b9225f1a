package git

import (
	"fmt"
	"path/filepath"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps a go-git repository together with a command runner
// for the mutations go-git does not cover.
type Repository struct {
	*gogit.Repository
	path   string
	runner *CommandRunner

	// Synchronizes go-git object reads to prevent concurrent packfile access
	mu sync.Mutex
}

// OpenRepository opens a git repository at the given path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Repository{
		Repository: repo,
		path:       absPath,
		runner:     NewCommandRunner(absPath),
	}, nil
}

// Path returns the root directory of the repository
func (r *Repository) Path() string {
	return r.path
}

// Runner returns the command runner rooted at the repository
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// GitDir returns the path to the repository's git metadata directory
func (r *Repository) GitDir() (string, error) {
	out, err := r.runner.Run(nil, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("failed to locate git dir: %w", err)
	}
	return out, nil
}

// resolveHash resolves a ref name, short name, SHA or revision expression to a hash
func (r *Repository) resolveHash(ref string) (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. Try as a full reference name
	if rr, err := r.Reference(plumbing.ReferenceName(ref), true); err == nil {
		return rr.Hash(), nil
	}

	// 2. Try as a local branch
	if rr, err := r.Reference(plumbing.ReferenceName("refs/heads/"+ref), true); err == nil {
		return rr.Hash(), nil
	}

	// 3. Try as a remote branch
	if rr, err := r.Reference(plumbing.ReferenceName("refs/remotes/"+ref), true); err == nil {
		return rr.Hash(), nil
	}

	// 4. Try as a tag
	if rr, err := r.Reference(plumbing.ReferenceName("refs/tags/"+ref), true); err == nil {
		return rr.Hash(), nil
	}

	// 5. Try ResolveRevision (handles SHAs, short SHAs and expressions like HEAD~1)
	hash, err := r.ResolveRevision(plumbing.Revision(ref))
	if err == nil {
		return *hash, nil
	}

	return plumbing.ZeroHash, fmt.Errorf("failed to resolve ref %s: reference not found", ref)
}

// ResolveRef resolves a ref name or revision expression to a commit hash string
func (r *Repository) ResolveRef(ref string) (string, error) {
	hash, err := r.resolveHash(ref)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}
