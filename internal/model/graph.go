// Package model builds the in-memory commit DAG from a repository snapshot
// and answers the topology queries the layout and operation engines need.
package model

import (
	"fmt"
	"sort"

	twerrors "twiggy.dev/twiggy/internal/errors"
	"twiggy.dev/twiggy/internal/git"
)

// Graph is an immutable commit DAG plus ref pointers, built from a snapshot.
// All query methods are safe for concurrent use.
type Graph struct {
	commits  map[string]git.Commit
	order    []string // enumeration order: newest committer time first, ties by hash
	children map[string][]string
	refs     []git.Ref
	refsAt   map[string][]git.Ref
	head     git.Head
}

// refKey namespaces a ref name so uniqueness is per-namespace
func refKey(ref git.Ref) string {
	return fmt.Sprintf("%s/%s", ref.Kind, ref.Name)
}

// Load builds a Graph from a snapshot. It refuses to construct a partially
// valid graph: a dangling parent, a ref to a missing commit or a duplicate
// ref name yields a ConsistencyError.
func Load(snap *git.Snapshot) (*Graph, error) {
	g := &Graph{
		commits:  make(map[string]git.Commit, len(snap.Commits)),
		children: make(map[string][]string),
		refsAt:   make(map[string][]git.Ref),
		head:     snap.Head,
	}

	for _, c := range snap.Commits {
		if _, ok := g.commits[c.Hash]; ok {
			return nil, twerrors.NewConsistencyError("duplicate commit", c.Hash, "")
		}
		g.commits[c.Hash] = c
	}

	for _, c := range snap.Commits {
		for _, parent := range c.Parents {
			if _, ok := g.commits[parent]; !ok {
				return nil, twerrors.NewConsistencyError("dangling parent", parent, "")
			}
			g.children[parent] = append(g.children[parent], c.Hash)
		}
	}

	seen := make(map[string]bool, len(snap.Refs))
	for _, ref := range snap.Refs {
		key := refKey(ref)
		if seen[key] {
			return nil, twerrors.NewConsistencyError("duplicate ref name", "", ref.Name)
		}
		seen[key] = true
		if _, ok := g.commits[ref.Hash]; !ok {
			return nil, twerrors.NewConsistencyError("ref points at missing commit", ref.Hash, ref.Name)
		}
		g.refs = append(g.refs, ref)
		g.refsAt[ref.Hash] = append(g.refsAt[ref.Hash], ref)
	}

	if snap.Head.Hash != "" {
		if _, ok := g.commits[snap.Head.Hash]; !ok {
			return nil, twerrors.NewConsistencyError("HEAD points at missing commit", snap.Head.Hash, "HEAD")
		}
	}

	g.order = make([]string, 0, len(g.commits))
	for hash := range g.commits {
		g.order = append(g.order, hash)
	}
	sort.Slice(g.order, func(i, j int) bool {
		return commitLess(g.commits[g.order[i]], g.commits[g.order[j]])
	})

	// Deterministic child ordering for traversals
	for _, kids := range g.children {
		sort.Strings(kids)
	}

	return g, nil
}

// commitLess orders commits newest committer time first, ties broken by hash
func commitLess(a, b git.Commit) bool {
	if !a.Committer.When.Equal(b.Committer.When) {
		return a.Committer.When.After(b.Committer.When)
	}
	return a.Hash < b.Hash
}

// Len returns the number of commits in the graph
func (g *Graph) Len() int {
	return len(g.commits)
}

// Commit looks up a commit by hash
func (g *Graph) Commit(hash string) (git.Commit, bool) {
	c, ok := g.commits[hash]
	return c, ok
}

// Commits returns all commits in enumeration order (newest first)
func (g *Graph) Commits() []git.Commit {
	out := make([]git.Commit, 0, len(g.order))
	for _, hash := range g.order {
		out = append(out, g.commits[hash])
	}
	return out
}

// Children returns the hashes of commits that have the given commit as a parent
func (g *Graph) Children(hash string) []string {
	return g.children[hash]
}

// Refs returns all refs in the graph
func (g *Graph) Refs() []git.Ref {
	return g.refs
}

// Ref looks up a ref by kind and short name
func (g *Graph) Ref(kind git.RefKind, name string) (git.Ref, bool) {
	for _, ref := range g.refs {
		if ref.Kind == kind && ref.Name == name {
			return ref, true
		}
	}
	return git.Ref{}, false
}

// Branch looks up a local branch by short name
func (g *Graph) Branch(name string) (git.Ref, bool) {
	return g.Ref(git.RefKindBranch, name)
}

// RefsAt returns the refs pointing at the given commit
func (g *Graph) RefsAt(hash string) []git.Ref {
	return g.refsAt[hash]
}

// Head returns the HEAD state captured with the snapshot
func (g *Graph) Head() git.Head {
	return g.head
}

// Resolve resolves a name to a commit hash: branch, then remote branch,
// then tag, then raw hash.
func (g *Graph) Resolve(name string) (string, bool) {
	for _, kind := range []git.RefKind{git.RefKindBranch, git.RefKindRemoteBranch, git.RefKindTag} {
		if ref, ok := g.Ref(kind, name); ok {
			return ref.Hash, true
		}
	}
	if _, ok := g.commits[name]; ok {
		return name, true
	}
	return "", false
}
