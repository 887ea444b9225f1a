package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scene bundles a temporary Git repository with automatic cleanup
type Scene struct {
	Dir  string
	Repo *GitRepo
}

// NewScene creates a temp directory with an initialized Git repository.
// Cleanup is registered on the test.
func NewScene(t *testing.T) *Scene {
	t.Helper()

	dir := t.TempDir()

	repo, err := NewGitRepo(dir)
	require.NoError(t, err)

	return &Scene{
		Dir:  dir,
		Repo: repo,
	}
}
