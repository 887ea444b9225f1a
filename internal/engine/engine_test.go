package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twerrors "twiggy.dev/twiggy/internal/errors"
	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/model"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func commit(hash string, minutes int, parents ...string) git.Commit {
	sig := git.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  base.Add(time.Duration(minutes) * time.Minute),
	}
	return git.Commit{
		Hash:      hash,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   fmt.Sprintf("commit %s", hash),
	}
}

func branch(name, hash string) git.Ref {
	return git.Ref{Name: name, Kind: git.RefKindBranch, Hash: hash}
}

// graphFixture is a1 <- b2 <- c3 (main) with feature stopped at b2:
//
//	a1 <- b2 <- c3   main (checked out)
//	       ^
//	       feature
func graphFixture(t *testing.T) *model.Graph {
	t.Helper()
	g, err := model.Load(&git.Snapshot{
		Commits: []git.Commit{
			commit("c3", 3, "b2"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "c3"), branch("feature", "b2")},
		Head: git.Head{Branch: "main", Hash: "c3"},
	})
	require.NoError(t, err)
	return g
}

// fakeBackend records every call and keeps a mutable ref table so tests can
// assert on end state after rollbacks. Individual calls can be forced to
// fail or conflict.
type fakeBackend struct {
	mu    sync.Mutex
	refs  map[string]string // full ref name -> hash
	calls []string

	failOn     string // substring of the call description that should error
	conflictOn string // substring of the call that should report a conflict

	conflictPaths []string
}

func newFakeBackend(refs map[string]string) *fakeBackend {
	copied := make(map[string]string, len(refs))
	for k, v := range refs {
		copied[k] = v
	}
	return &fakeBackend{refs: copied}
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) refTable() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := make(map[string]string, len(b.refs))
	for k, v := range b.refs {
		copied[k] = v
	}
	return copied
}

func (b *fakeBackend) shouldFail(call string) error {
	if b.failOn != "" && strings.Contains(call, b.failOn) {
		return fmt.Errorf("forced failure on %s", call)
	}
	return nil
}

func (b *fakeBackend) Path() string            { return "/fake" }
func (b *fakeBackend) GitDir() (string, error) { return "/fake/.git", nil }

func (b *fakeBackend) ReadSnapshot(opts git.SnapshotOptions) (*git.Snapshot, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBackend) ResolveRef(ref string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if hash, ok := b.refs["refs/heads/"+ref]; ok {
		return hash, nil
	}
	return "", twerrors.ErrRefNotFound
}

func (b *fakeBackend) IsAncestor(ancestor, descendant string) (bool, error) {
	return false, errors.New("not implemented")
}

func (b *fakeBackend) MergeBase(rev1, rev2 string) (string, error) {
	return "", errors.New("not implemented")
}

func (b *fakeBackend) UpdateRef(ctx context.Context, name, newHash, oldHash string) error {
	call := fmt.Sprintf("update-ref %s %s %s", name, newHash, oldHash)
	b.record(call)
	if err := b.shouldFail(call); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	current, exists := b.refs[name]
	if oldHash == git.ZeroHash && exists {
		return fmt.Errorf("create %s: %w", name, twerrors.ErrStaleRef)
	}
	if oldHash != "" && oldHash != git.ZeroHash && current != oldHash {
		return fmt.Errorf("update %s: %w", name, twerrors.ErrStaleRef)
	}
	b.refs[name] = newHash
	return nil
}

func (b *fakeBackend) DeleteRef(ctx context.Context, name, oldHash string) error {
	call := fmt.Sprintf("delete-ref %s %s", name, oldHash)
	b.record(call)
	if err := b.shouldFail(call); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if oldHash != "" && b.refs[name] != oldHash {
		return fmt.Errorf("delete %s: %w", name, twerrors.ErrStaleRef)
	}
	delete(b.refs, name)
	return nil
}

func (b *fakeBackend) CreateBranch(ctx context.Context, name, hash string) error {
	return b.UpdateRef(ctx, "refs/heads/"+name, hash, git.ZeroHash)
}

func (b *fakeBackend) CheckoutBranch(ctx context.Context, name string) error {
	call := "checkout " + name
	b.record(call)
	return b.shouldFail(call)
}

func (b *fakeBackend) CheckoutDetached(ctx context.Context, rev string) error {
	call := "checkout-detached " + rev
	b.record(call)
	return b.shouldFail(call)
}

func (b *fakeBackend) HardReset(ctx context.Context, rev string) error {
	call := "hard-reset " + rev
	b.record(call)
	return b.shouldFail(call)
}

func (b *fakeBackend) SoftReset(ctx context.Context, rev string) error {
	call := "soft-reset " + rev
	b.record(call)
	return b.shouldFail(call)
}

func (b *fakeBackend) Merge(ctx context.Context, rev string, opts git.MergeOptions) (git.MergeResult, error) {
	call := "merge " + rev
	b.record(call)
	if err := b.shouldFail(call); err != nil {
		return git.MergeConflict, err
	}
	if b.conflictOn != "" && strings.Contains(call, b.conflictOn) {
		return git.MergeConflict, nil
	}
	return git.MergeDone, nil
}

func (b *fakeBackend) Rebase(ctx context.Context, branchName, onto string) (git.RebaseResult, error) {
	call := fmt.Sprintf("rebase %s onto %s", branchName, onto)
	b.record(call)
	if err := b.shouldFail(call); err != nil {
		return git.RebaseConflict, err
	}
	if b.conflictOn != "" && strings.Contains(call, b.conflictOn) {
		return git.RebaseConflict, nil
	}
	return git.RebaseDone, nil
}

func (b *fakeBackend) CherryPick(ctx context.Context, hash string) (git.CherryPickResult, error) {
	call := "cherry-pick " + hash
	b.record(call)
	if err := b.shouldFail(call); err != nil {
		return git.CherryPickConflict, err
	}
	if b.conflictOn != "" && strings.Contains(call, b.conflictOn) {
		return git.CherryPickConflict, nil
	}
	return git.CherryPickDone, nil
}

func (b *fakeBackend) ConflictedPaths(ctx context.Context) ([]string, error) {
	return b.conflictPaths, nil
}

var _ git.Backend = (*fakeBackend)(nil)

func fixtureBackend() *fakeBackend {
	return newFakeBackend(map[string]string{
		"refs/heads/main":    "c3",
		"refs/heads/feature": "b2",
	})
}

func TestValidateRejectsWithoutBackendCalls(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
	}{
		{
			name:   "fast-forward to non-descendant",
			intent: Intent{Kind: KindFastForward, Source: "main", Target: "b2"},
		},
		{
			name:   "fast-forward unknown branch",
			intent: Intent{Kind: KindFastForward, Source: "nope", Target: "c3"},
		},
		{
			name:   "create branch that exists elsewhere",
			intent: Intent{Kind: KindCreateBranch, Source: "feature", Target: "c3"},
		},
		{
			name:   "delete the checked-out branch",
			intent: Intent{Kind: KindDeleteBranch, Source: "main"},
		},
		{
			name:   "rebase onto itself",
			intent: Intent{Kind: KindRebase, Source: "feature", Target: "feature"},
		},
		{
			name:   "merge unknown source",
			intent: Intent{Kind: KindMerge, Source: "nope", Target: "main"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := fixtureBackend()
			e := New(backend)

			_, err := e.Validate(tt.intent, graphFixture(t))
			require.Error(t, err)
			assert.True(t, errors.Is(err, twerrors.ErrValidation))
			assert.Zero(t, backend.callCount(), "rejection must not touch the backend")
		})
	}
}

func TestExecuteFastForward(t *testing.T) {
	backend := fixtureBackend()
	e := New(backend)
	g := graphFixture(t)

	plan, err := e.Validate(Intent{Kind: KindFastForward, Source: "feature", Target: "main"}, g)
	require.NoError(t, err)
	require.False(t, plan.AlreadySatisfied)

	result := e.Execute(context.Background(), plan)

	assert.Equal(t, StateCommitted, result.State)
	require.NoError(t, result.Err)
	assert.Equal(t, "c3", result.RefState["feature"])
	assert.Equal(t, "c3", backend.refTable()["refs/heads/feature"])
}

func TestExecuteAlreadySatisfied(t *testing.T) {
	backend := fixtureBackend()
	e := New(backend)
	g := graphFixture(t)

	t.Run("fast-forward to current position", func(t *testing.T) {
		plan, err := e.Validate(Intent{Kind: KindFastForward, Source: "feature", Target: "b2"}, g)
		require.NoError(t, err)
		require.True(t, plan.AlreadySatisfied)

		result := e.Execute(context.Background(), plan)
		assert.Equal(t, StateCommitted, result.State)
		assert.True(t, result.AlreadySatisfied)
		assert.Zero(t, backend.callCount())
	})

	t.Run("delete a branch that does not exist", func(t *testing.T) {
		plan, err := e.Validate(Intent{Kind: KindDeleteBranch, Source: "gone"}, g)
		require.NoError(t, err)
		require.True(t, plan.AlreadySatisfied)

		result := e.Execute(context.Background(), plan)
		assert.Equal(t, StateCommitted, result.State)
		assert.Zero(t, backend.callCount())
	})

	t.Run("merge an already merged source", func(t *testing.T) {
		plan, err := e.Validate(Intent{Kind: KindMerge, Source: "feature", Target: "main"}, g)
		require.NoError(t, err)
		require.True(t, plan.AlreadySatisfied)

		result := e.Execute(context.Background(), plan)
		assert.Equal(t, StateCommitted, result.State)
		assert.Zero(t, backend.callCount())
	})
}

func TestExecuteCreateAndDeleteBranch(t *testing.T) {
	backend := fixtureBackend()
	e := New(backend)
	g := graphFixture(t)

	plan, err := e.Validate(Intent{Kind: KindCreateBranch, Source: "topic", Target: "b2"}, g)
	require.NoError(t, err)

	result := e.Execute(context.Background(), plan)
	require.Equal(t, StateCommitted, result.State)
	assert.Equal(t, "b2", backend.refTable()["refs/heads/topic"])

	plan, err = e.Validate(Intent{Kind: KindDeleteBranch, Source: "feature"}, g)
	require.NoError(t, err)

	result = e.Execute(context.Background(), plan)
	require.Equal(t, StateCommitted, result.State)
	assert.Empty(t, result.RefState["feature"])
	_, exists := backend.refTable()["refs/heads/feature"]
	assert.False(t, exists)
}

func TestExecuteRollback(t *testing.T) {
	t.Run("failed step restores the ref table", func(t *testing.T) {
		// Merge into feature requires checkout first; failing the merge
		// step must undo the checkout
		backend := fixtureBackend()
		backend.failOn = "merge"
		e := New(backend)

		g := graphFixture(t)
		plan, err := e.Validate(Intent{Kind: KindMerge, Source: "main", Target: "feature", NoFF: true}, g)
		require.NoError(t, err)

		before := backend.refTable()
		result := e.Execute(context.Background(), plan)

		assert.Equal(t, StateFailed, result.State)
		require.Error(t, result.Err)
		assert.True(t, errors.Is(result.Err, twerrors.ErrExecution))

		var execErr *twerrors.ExecutionError
		require.True(t, errors.As(result.Err, &execErr))
		assert.True(t, execErr.RolledBack)
		assert.Nil(t, result.RefState)

		assert.Equal(t, before, backend.refTable())

		// The checkout step ran and its undo restored the original branch
		assert.Contains(t, backend.calls, "checkout feature")
		assert.Contains(t, backend.calls, "checkout main")
	})

	t.Run("stale ref update rolls back earlier steps", func(t *testing.T) {
		backend := fixtureBackend()
		e := New(backend)

		g := graphFixture(t)
		plan, err := e.Validate(Intent{Kind: KindFastForward, Source: "feature", Target: "main"}, g)
		require.NoError(t, err)

		// Concurrent external change between validation and execution
		backend.mu.Lock()
		backend.refs["refs/heads/feature"] = "a1"
		backend.mu.Unlock()

		result := e.Execute(context.Background(), plan)

		assert.Equal(t, StateFailed, result.State)
		require.Error(t, result.Err)
		assert.True(t, errors.Is(result.Err, twerrors.ErrStaleRef))

		// The externally moved ref is untouched
		assert.Equal(t, "a1", backend.refTable()["refs/heads/feature"])
	})

	t.Run("failed rollback is reported", func(t *testing.T) {
		backend := fixtureBackend()
		backend.failOn = "hard-reset"
		backend.conflictOn = "" // the merge succeeds, the following step fails
		e := New(backend)

		// Hand-built two-step plan where step two fails and step one's undo
		// also fails
		plan := &Plan{
			Intent: Intent{Kind: KindMerge, Source: "main", Target: "feature"},
			steps: []Step{
				{
					Desc: "checkout feature",
					Run: func(ctx context.Context) (StepStatus, error) {
						return StepOK, backend.CheckoutBranch(ctx, "feature")
					},
					Undo: func(ctx context.Context) error {
						return backend.HardReset(ctx, "c3")
					},
				},
				{
					Desc: "failing step",
					Run: func(ctx context.Context) (StepStatus, error) {
						return StepOK, errors.New("boom")
					},
				},
			},
		}

		result := e.Execute(context.Background(), plan)

		assert.Equal(t, StateRolledBack, result.State)
		require.Error(t, result.Err)

		var execErr *twerrors.ExecutionError
		require.True(t, errors.As(result.Err, &execErr))
		assert.False(t, execErr.RolledBack)
	})
}

func TestExecuteConflict(t *testing.T) {
	backend := fixtureBackend()
	backend.conflictOn = "merge"
	backend.conflictPaths = []string{"main.go", "go.mod"}
	e := New(backend)

	g := graphFixture(t)
	plan, err := e.Validate(Intent{Kind: KindMerge, Source: "main", Target: "feature", NoFF: true}, g)
	require.NoError(t, err)

	result := e.Execute(context.Background(), plan)

	assert.Equal(t, StateConflicted, result.State)
	assert.NoError(t, result.Err)
	assert.Equal(t, []string{"main.go", "go.mod"}, result.ConflictPaths)

	// Conflicts await external resolution: no rollback ran
	assert.NotContains(t, backend.calls, "hard-reset b2")
}

func TestExecuteCanceled(t *testing.T) {
	backend := fixtureBackend()
	e := New(backend)

	g := graphFixture(t)
	plan, err := e.Validate(Intent{Kind: KindFastForward, Source: "feature", Target: "main"}, g)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := e.Execute(ctx, plan)

	assert.Equal(t, StateCanceled, result.State)
	assert.Zero(t, backend.callCount(), "canceled plan must not touch the backend")
	assert.Equal(t, "b2", backend.refTable()["refs/heads/feature"])
}

func TestExecuteSerializesPlans(t *testing.T) {
	backend := fixtureBackend()
	e := New(backend)

	var mu sync.Mutex
	running := 0
	maxRunning := 0

	mkPlan := func(i int) *Plan {
		return &Plan{
			Intent: Intent{Kind: KindCreateBranch, Source: fmt.Sprintf("b%d", i)},
			steps: []Step{{
				Desc: "slow step",
				Run: func(ctx context.Context) (StepStatus, error) {
					mu.Lock()
					running++
					if running > maxRunning {
						maxRunning = running
					}
					mu.Unlock()

					time.Sleep(10 * time.Millisecond)

					mu.Lock()
					running--
					mu.Unlock()
					return StepOK, nil
				},
			}},
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result := e.Execute(context.Background(), mkPlan(i))
			assert.Equal(t, StateCommitted, result.State)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxRunning, "plans must not interleave")
}

func TestPlanReset(t *testing.T) {
	t.Run("checked-out branch resets through the worktree", func(t *testing.T) {
		backend := fixtureBackend()
		e := New(backend)

		plan, err := e.Validate(Intent{Kind: KindReset, Source: "main", Target: "a1", Hard: true}, graphFixture(t))
		require.NoError(t, err)

		result := e.Execute(context.Background(), plan)
		require.Equal(t, StateCommitted, result.State)
		assert.Contains(t, backend.calls, "hard-reset a1")
	})

	t.Run("other branch moves by ref update", func(t *testing.T) {
		backend := fixtureBackend()
		e := New(backend)

		plan, err := e.Validate(Intent{Kind: KindReset, Source: "feature", Target: "a1"}, graphFixture(t))
		require.NoError(t, err)

		result := e.Execute(context.Background(), plan)
		require.Equal(t, StateCommitted, result.State)
		assert.Equal(t, "a1", backend.refTable()["refs/heads/feature"])
		assert.NotContains(t, backend.calls, "checkout feature")
	})
}
