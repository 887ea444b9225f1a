package git

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
)

// Signature identifies the author or committer of a commit
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit holds the metadata of a single commit. Topology only: no tree
// or diff content is loaded.
type Commit struct {
	Hash      string
	Parents   []string
	Author    Signature
	Committer Signature
	Message   string
}

// Summary returns the first line of the commit message
func (c Commit) Summary() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// ShortHash returns the abbreviated commit hash for display
func (c Commit) ShortHash() string {
	if len(c.Hash) < 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

// RefKind distinguishes the ref namespaces
type RefKind uint8

const (
	// RefKindBranch is a local branch under refs/heads
	RefKindBranch RefKind = iota
	// RefKindRemoteBranch is a remote-tracking branch under refs/remotes
	RefKindRemoteBranch
	// RefKindTag is a tag under refs/tags
	RefKindTag
)

func (k RefKind) String() string {
	switch k {
	case RefKindBranch:
		return "branch"
	case RefKindRemoteBranch:
		return "remote"
	case RefKindTag:
		return "tag"
	}
	return "unknown"
}

// Ref is a named pointer to a commit
type Ref struct {
	Name string // short name: main, origin/main, v1.0
	Kind RefKind
	Hash string
}

// Head describes where HEAD points at snapshot time
type Head struct {
	Branch   string // branch short name when attached
	Hash     string // commit hash (empty when unborn)
	Detached bool
	Unborn   bool
}

// Snapshot is an immutable point-in-time read of repository refs and
// commit metadata. It is safe to share across goroutines.
type Snapshot struct {
	Path    string
	Commits []Commit
	Refs    []Ref
	Head    Head
	TakenAt time.Time
}

// SnapshotOptions controls how much history a snapshot loads
type SnapshotOptions struct {
	// MaxCommits caps the number of commits walked from the ref tips.
	// Zero means no cap.
	MaxCommits int
}

// ReadSnapshot reads refs and commit metadata into an immutable snapshot.
// Commits are collected breadth-first from every ref tip plus HEAD, so the
// snapshot covers exactly the commits the graph needs for visualization.
func (r *Repository) ReadSnapshot(opts SnapshotOptions) (*Snapshot, error) {
	snap := &Snapshot{
		Path:    r.path,
		TakenAt: time.Now(),
	}

	head, err := r.readHead()
	if err != nil {
		return nil, err
	}
	snap.Head = head

	refs, err := r.readRefs()
	if err != nil {
		return nil, err
	}
	snap.Refs = refs

	tips := make([]plumbing.Hash, 0, len(refs)+1)
	for _, ref := range refs {
		tips = append(tips, plumbing.NewHash(ref.Hash))
	}
	if head.Hash != "" {
		tips = append(tips, plumbing.NewHash(head.Hash))
	}

	commits, err := r.walkCommits(tips, opts.MaxCommits)
	if err != nil {
		return nil, err
	}
	snap.Commits = commits

	return snap, nil
}

// readHead resolves HEAD, reporting detached and unborn states
func (r *Repository) readHead() (Head, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Follow at most one symbolic hop ourselves so unborn branches
	// (symbolic HEAD to a ref that does not exist yet) are detectable.
	headRef, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return Head{}, fmt.Errorf("failed to read HEAD: %w", err)
	}

	if headRef.Type() == plumbing.HashReference {
		return Head{Hash: headRef.Hash().String(), Detached: true}, nil
	}

	target := headRef.Target()
	resolved, err := r.Reference(target, true)
	if err != nil {
		// Symbolic HEAD to a branch with no commits yet
		return Head{Branch: target.Short(), Unborn: true}, nil
	}

	return Head{Branch: target.Short(), Hash: resolved.Hash().String()}, nil
}

// readRefs enumerates local branches, remote-tracking branches and tags
func (r *Repository) readRefs() ([]Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	iter, err := r.References()
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}

	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			refs = append(refs, Ref{Name: name.Short(), Kind: RefKindBranch, Hash: ref.Hash().String()})
		case name.IsRemote():
			// Skip symbolic-ish remote HEAD entries such as origin/HEAD
			refs = append(refs, Ref{Name: name.Short(), Kind: RefKindRemoteBranch, Hash: ref.Hash().String()})
		case name.IsTag():
			refs = append(refs, Ref{Name: name.Short(), Kind: RefKindTag, Hash: ref.Hash().String()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate refs: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Kind != refs[j].Kind {
			return refs[i].Kind < refs[j].Kind
		}
		return refs[i].Name < refs[j].Name
	})

	return refs, nil
}

// walkCommits collects commit metadata breadth-first from the given tips.
// When maxCommits is positive the walk stops after that many commits; parents
// outside the cap are dropped from the loaded commits so the snapshot stays
// self-contained.
func (r *Repository) walkCommits(tips []plumbing.Hash, maxCommits int) ([]Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visited := make(map[plumbing.Hash]bool)
	var commits []Commit

	queue := make([]plumbing.Hash, 0, len(tips))
	for _, tip := range tips {
		if !tip.IsZero() {
			queue = append(queue, tip)
		}
	}

	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		if visited[hash] {
			continue
		}
		visited[hash] = true

		obj, err := r.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
		}

		c := Commit{
			Hash: obj.Hash.String(),
			Author: Signature{
				Name:  obj.Author.Name,
				Email: obj.Author.Email,
				When:  obj.Author.When,
			},
			Committer: Signature{
				Name:  obj.Committer.Name,
				Email: obj.Committer.Email,
				When:  obj.Committer.When,
			},
			Message: obj.Message,
		}
		for _, parent := range obj.ParentHashes {
			c.Parents = append(c.Parents, parent.String())
		}
		commits = append(commits, c)

		if maxCommits > 0 && len(commits) >= maxCommits {
			break
		}

		for _, parent := range obj.ParentHashes {
			if !visited[parent] {
				queue = append(queue, parent)
			}
		}
	}

	if maxCommits > 0 && len(commits) == maxCommits {
		commits = trimDanglingParents(commits)
	}

	return commits, nil
}

// trimDanglingParents drops parent links that point outside the loaded set,
// which happens only when a MaxCommits cap truncated the walk
func trimDanglingParents(commits []Commit) []Commit {
	loaded := make(map[string]bool, len(commits))
	for _, c := range commits {
		loaded[c.Hash] = true
	}
	for i := range commits {
		kept := commits[i].Parents[:0]
		for _, p := range commits[i].Parents {
			if loaded[p] {
				kept = append(kept, p)
			}
		}
		commits[i].Parents = kept
	}
	return commits
}
