package git

import "context"

// Backend defines the narrow interface the engine and refresh controller
// need from a repository. The default implementation is *Repository; tests
// substitute a mock to exercise failure and rollback paths without a real
// repository.
type Backend interface {
	// Repository identity and reads
	Path() string
	GitDir() (string, error)
	ReadSnapshot(opts SnapshotOptions) (*Snapshot, error)
	ResolveRef(ref string) (string, error)
	IsAncestor(ancestor, descendant string) (bool, error)
	MergeBase(rev1, rev2 string) (string, error)

	// Ref mutations (compare-and-swap)
	UpdateRef(ctx context.Context, name, newHash, oldHash string) error
	DeleteRef(ctx context.Context, name, oldHash string) error
	CreateBranch(ctx context.Context, name, hash string) error

	// Worktree state
	CheckoutBranch(ctx context.Context, name string) error
	CheckoutDetached(ctx context.Context, rev string) error
	HardReset(ctx context.Context, rev string) error
	SoftReset(ctx context.Context, rev string) error

	// History-rewriting primitives
	Merge(ctx context.Context, rev string, opts MergeOptions) (MergeResult, error)
	Rebase(ctx context.Context, branchName, onto string) (RebaseResult, error)
	CherryPick(ctx context.Context, hash string) (CherryPickResult, error)
	ConflictedPaths(ctx context.Context) ([]string, error)
}

var _ Backend = (*Repository)(nil)
