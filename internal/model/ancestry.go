package model

import (
	"container/heap"
	"fmt"
	"iter"

	twerrors "twiggy.dev/twiggy/internal/errors"
	"twiggy.dev/twiggy/internal/git"
)

// commitHeap orders commit hashes newest committer time first, ties by hash,
// so traversals enumerate commits in the same order on every call
type commitHeap struct {
	hashes  []string
	commits map[string]git.Commit
}

func (h *commitHeap) Len() int { return len(h.hashes) }
func (h *commitHeap) Less(i, j int) bool {
	return commitLess(h.commits[h.hashes[i]], h.commits[h.hashes[j]])
}
func (h *commitHeap) Swap(i, j int) { h.hashes[i], h.hashes[j] = h.hashes[j], h.hashes[i] }
func (h *commitHeap) Push(x any)    { h.hashes = append(h.hashes, x.(string)) }
func (h *commitHeap) Pop() any {
	old := h.hashes
	n := len(old)
	x := old[n-1]
	h.hashes = old[:n-1]
	return x
}

// Ancestors enumerates the given commit and all of its ancestors, newest
// committer time first with ties broken by hash. The sequence is finite and
// restartable: iterating it twice yields the same commits in the same order.
//
// The traversal carries a defensive guard: if it ever visits more commits
// than the graph holds, or meets a parent missing from the commit table, it
// yields a ConsistencyError as the second value and stops. Neither is
// reachable through Load, which validates the snapshot up front.
func (g *Graph) Ancestors(hash string) iter.Seq2[git.Commit, error] {
	return func(yield func(git.Commit, error) bool) {
		start, ok := g.commits[hash]
		if !ok {
			yield(git.Commit{}, fmt.Errorf("ancestors of %s: %w", hash, twerrors.ErrCommitNotFound))
			return
		}

		frontier := &commitHeap{commits: g.commits}
		heap.Push(frontier, start.Hash)
		enqueued := map[string]bool{start.Hash: true}

		steps := 0
		for frontier.Len() > 0 {
			steps++
			if steps > len(g.commits) {
				yield(git.Commit{}, twerrors.NewConsistencyError("traversal exceeded commit count, possible cycle", hash, ""))
				return
			}

			current := heap.Pop(frontier).(string)
			commit, ok := g.commits[current]
			if !ok {
				yield(git.Commit{}, twerrors.NewConsistencyError("traversal reached missing commit", current, ""))
				return
			}

			if !yield(commit, nil) {
				return
			}

			for _, parent := range commit.Parents {
				if !enqueued[parent] {
					enqueued[parent] = true
					heap.Push(frontier, parent)
				}
			}
		}
	}
}

// IsAncestor reports whether ancestor is reachable from descendant by
// following parent edges. A commit is considered its own ancestor.
func (g *Graph) IsAncestor(ancestor, descendant string) (bool, error) {
	if _, ok := g.commits[ancestor]; !ok {
		return false, fmt.Errorf("is-ancestor %s: %w", ancestor, twerrors.ErrCommitNotFound)
	}
	if _, ok := g.commits[descendant]; !ok {
		return false, fmt.Errorf("is-ancestor %s: %w", descendant, twerrors.ErrCommitNotFound)
	}

	for commit, err := range g.Ancestors(descendant) {
		if err != nil {
			return false, err
		}
		if commit.Hash == ancestor {
			return true, nil
		}
	}
	return false, nil
}

// MergeBase returns the best common ancestor of a and b, the 3-way merge
// anchor. When a criss-cross history produces several equally good
// candidates, the one with the lowest hash is returned so the result is
// reproducible. Returns the empty string when the commits share no history.
func (g *Graph) MergeBase(a, b string) (string, error) {
	reachableA, err := g.ancestorSet(a)
	if err != nil {
		return "", err
	}
	reachableB, err := g.ancestorSet(b)
	if err != nil {
		return "", err
	}

	common := make(map[string]bool)
	for hash := range reachableA {
		if reachableB[hash] {
			common[hash] = true
		}
	}
	if len(common) == 0 {
		return "", nil
	}

	// A common ancestor is redundant if it is a strict ancestor of another
	// common ancestor. Parent-marking every member's ancestry is quadratic in
	// the worst case, which is acceptable at visualization scale.
	redundant := make(map[string]bool)
	for hash := range common {
		for commit, err := range g.Ancestors(hash) {
			if err != nil {
				return "", err
			}
			if commit.Hash != hash && common[commit.Hash] {
				redundant[commit.Hash] = true
			}
		}
	}

	best := ""
	for hash := range common {
		if redundant[hash] {
			continue
		}
		if best == "" || hash < best {
			best = hash
		}
	}
	return best, nil
}

// ancestorSet collects the hashes of a commit and all its ancestors
func (g *Graph) ancestorSet(hash string) (map[string]bool, error) {
	set := make(map[string]bool)
	for commit, err := range g.Ancestors(hash) {
		if err != nil {
			return nil, err
		}
		set[commit.Hash] = true
	}
	return set, nil
}
