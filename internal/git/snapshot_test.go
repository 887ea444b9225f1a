package git_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/testhelpers"
)

func openRepo(t *testing.T, scene *testhelpers.Scene) *git.Repository {
	t.Helper()
	repo, err := git.OpenRepository(scene.Dir)
	require.NoError(t, err)
	return repo
}

func findRef(refs []git.Ref, kind git.RefKind, name string) (git.Ref, bool) {
	for _, ref := range refs {
		if ref.Kind == kind && ref.Name == name {
			return ref, true
		}
	}
	return git.Ref{}, false
}

func TestReadSnapshot(t *testing.T) {
	t.Run("linear history", func(t *testing.T) {
		scene := testhelpers.NewScene(t)
		require.NoError(t, scene.Repo.CreateChangeAndCommit("first", ""))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("second", ""))

		repo := openRepo(t, scene)
		snap, err := repo.ReadSnapshot(git.SnapshotOptions{})
		require.NoError(t, err)

		require.Len(t, snap.Commits, 2)
		assert.Equal(t, "main", snap.Head.Branch)
		assert.False(t, snap.Head.Detached)
		assert.False(t, snap.Head.Unborn)

		main, ok := findRef(snap.Refs, git.RefKindBranch, "main")
		require.True(t, ok)
		assert.Equal(t, snap.Head.Hash, main.Hash)

		// The tip commit carries its parent link and the messages round-trip
		tip, err := repo.ResolveRef("main")
		require.NoError(t, err)
		for _, c := range snap.Commits {
			if c.Hash == tip {
				require.Len(t, c.Parents, 1)
				assert.Equal(t, "second", c.Summary())
			}
		}
	})

	t.Run("branches and tags", func(t *testing.T) {
		scene := testhelpers.NewScene(t)
		require.NoError(t, scene.Repo.CreateChangeAndCommit("first", ""))
		require.NoError(t, scene.Repo.CreateBranch("feature"))
		require.NoError(t, scene.Repo.CreateTag("v1.0"))

		repo := openRepo(t, scene)
		snap, err := repo.ReadSnapshot(git.SnapshotOptions{})
		require.NoError(t, err)

		_, ok := findRef(snap.Refs, git.RefKindBranch, "feature")
		assert.True(t, ok)
		_, ok = findRef(snap.Refs, git.RefKindTag, "v1.0")
		assert.True(t, ok)
	})

	t.Run("merge commit has two parents", func(t *testing.T) {
		scene := testhelpers.NewScene(t)
		require.NoError(t, scene.Repo.CreateChangeAndCommit("base", ""))
		require.NoError(t, scene.Repo.CreateAndCheckoutBranch("feature"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("feature work", "feature"))
		require.NoError(t, scene.Repo.CheckoutBranch("main"))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("main work", "main"))
		require.NoError(t, scene.Repo.MergeBranch("main", "feature"))

		repo := openRepo(t, scene)
		snap, err := repo.ReadSnapshot(git.SnapshotOptions{})
		require.NoError(t, err)

		require.Len(t, snap.Commits, 4)

		tip, err := repo.ResolveRef("main")
		require.NoError(t, err)
		var found bool
		for _, c := range snap.Commits {
			if c.Hash == tip {
				found = true
				assert.Len(t, c.Parents, 2)
			}
		}
		assert.True(t, found)
	})

	t.Run("detached HEAD", func(t *testing.T) {
		scene := testhelpers.NewScene(t)
		require.NoError(t, scene.Repo.CreateChangeAndCommit("first", ""))
		require.NoError(t, scene.Repo.CreateChangeAndCommit("second", ""))
		first, err := scene.Repo.GetRevision("HEAD~1")
		require.NoError(t, err)
		require.NoError(t, scene.Repo.RunGitCommand("checkout", "--detach", first))

		repo := openRepo(t, scene)
		snap, err := repo.ReadSnapshot(git.SnapshotOptions{})
		require.NoError(t, err)

		assert.True(t, snap.Head.Detached)
		assert.Equal(t, first, snap.Head.Hash)
		assert.Empty(t, snap.Head.Branch)
	})

	t.Run("unborn branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t)

		repo := openRepo(t, scene)
		snap, err := repo.ReadSnapshot(git.SnapshotOptions{})
		require.NoError(t, err)

		assert.True(t, snap.Head.Unborn)
		assert.Equal(t, "main", snap.Head.Branch)
		assert.Empty(t, snap.Head.Hash)
		assert.Empty(t, snap.Commits)
		assert.Empty(t, snap.Refs)
	})

	t.Run("max commits caps the walk", func(t *testing.T) {
		scene := testhelpers.NewScene(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, scene.Repo.CreateChangeAndCommit("change", string(rune('a'+i))))
		}

		repo := openRepo(t, scene)
		snap, err := repo.ReadSnapshot(git.SnapshotOptions{MaxCommits: 3})
		require.NoError(t, err)

		require.Len(t, snap.Commits, 3)

		// No parent may point outside the loaded set
		loaded := make(map[string]bool)
		for _, c := range snap.Commits {
			loaded[c.Hash] = true
		}
		for _, c := range snap.Commits {
			for _, p := range c.Parents {
				assert.True(t, loaded[p], "parent %s of %s not loaded", p, c.Hash)
			}
		}
	})
}
