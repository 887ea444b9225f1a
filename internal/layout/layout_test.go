package layout

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func load(t *testing.T, snap *git.Snapshot) *model.Graph {
	t.Helper()
	g, err := model.Load(snap)
	require.NoError(t, err)
	return g
}

// requireNode fetches a laid-out node or fails the test
func requireNode(t *testing.T, res *Result, hash string) Node {
	t.Helper()
	node, ok := res.Node(hash)
	require.True(t, ok, "no node for %s", hash)
	return node
}

func TestLayoutLinearHistory(t *testing.T) {
	g := load(t, &git.Snapshot{
		Commits: []git.Commit{
			commit("c3", 3, "b2"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "c3")},
		Head: git.Head{Branch: "main", Hash: "c3"},
	})

	res := Layout(g, nil)

	assert.Equal(t, 3, res.Rows())
	assert.Equal(t, 1, res.Lanes)

	// Root sits at the lowest row, every child strictly above its parent
	assert.Equal(t, 0, requireNode(t, res, "a1").Row)
	assert.Equal(t, 1, requireNode(t, res, "b2").Row)
	assert.Equal(t, 2, requireNode(t, res, "c3").Row)

	for _, node := range res.Nodes {
		assert.Equal(t, 0, node.Lane)
	}

	// Nodes are returned newest-first
	assert.Equal(t, "c3", res.Nodes[0].Hash)
	assert.Equal(t, "a1", res.Nodes[2].Hash)
}

func TestLayoutEmptyGraph(t *testing.T) {
	g := load(t, &git.Snapshot{Head: git.Head{Branch: "main", Unborn: true}})

	res := Layout(g, nil)

	assert.Equal(t, 0, res.Rows())
	assert.Equal(t, 0, res.Lanes)
	_, ok := res.Node("anything")
	assert.False(t, ok)
}

func TestLayoutDivergedBranches(t *testing.T) {
	// a1 <- b2 <- d4        (main)
	//   \
	//    c3 <- e5           (feature)
	g := load(t, &git.Snapshot{
		Commits: []git.Commit{
			commit("e5", 5, "c3"),
			commit("d4", 4, "b2"),
			commit("c3", 3, "a1"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "d4"), branch("feature", "e5")},
		Head: git.Head{Branch: "main", Hash: "d4"},
	})

	res := Layout(g, nil)

	assert.Equal(t, 5, res.Rows())
	assert.Equal(t, 2, res.Lanes)

	// HEAD's branch lineage owns lane 0 down to the root
	assert.Equal(t, 0, requireNode(t, res, "d4").Lane)
	assert.Equal(t, 0, requireNode(t, res, "b2").Lane)
	assert.Equal(t, 0, requireNode(t, res, "a1").Lane)

	// The diverged branch occupies its own lane
	assert.Equal(t, 1, requireNode(t, res, "e5").Lane)
	assert.Equal(t, 1, requireNode(t, res, "c3").Lane)

	// Topological order holds on both lines
	assert.Greater(t, requireNode(t, res, "d4").Row, requireNode(t, res, "b2").Row)
	assert.Greater(t, requireNode(t, res, "e5").Row, requireNode(t, res, "c3").Row)
	assert.Greater(t, requireNode(t, res, "c3").Row, requireNode(t, res, "a1").Row)
}

func TestLayoutMergeCommit(t *testing.T) {
	// a1 <- b2 <- m4   (main), second parent c3 (feature)
	g := load(t, &git.Snapshot{
		Commits: []git.Commit{
			commit("m4", 4, "b2", "c3"),
			commit("c3", 3, "a1"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "m4"), branch("feature", "c3")},
		Head: git.Head{Branch: "main", Hash: "m4"},
	})

	res := Layout(g, nil)

	merge := requireNode(t, res, "m4")
	require.Len(t, merge.Parents, 2)

	// One segment per parent, each anchored at the merge commit's own
	// position and ending at the parent's position
	for _, seg := range merge.Parents {
		assert.Equal(t, merge.Row, seg.FromRow)
		assert.Equal(t, merge.Lane, seg.FromLane)
		parent := requireNode(t, res, seg.ParentHash)
		assert.Equal(t, parent.Row, seg.ToRow)
		assert.Equal(t, parent.Lane, seg.ToLane)
		assert.Less(t, seg.ToRow, seg.FromRow)
	}

	// Merge commit sits on the first-parent lane
	assert.Equal(t, requireNode(t, res, "b2").Lane, merge.Lane)
	assert.NotEqual(t, merge.Lane, requireNode(t, res, "c3").Lane)
}

func TestLayoutDeterminism(t *testing.T) {
	snap := &git.Snapshot{
		Commits: []git.Commit{
			commit("m5", 5, "d4", "c3"),
			commit("d4", 4, "b2"),
			commit("c3", 3, "a1"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "m5"), branch("feature", "c3")},
		Head: git.Head{Branch: "main", Hash: "m5"},
	}

	first := Layout(load(t, snap), nil)
	second := Layout(load(t, snap), nil)

	require.Equal(t, first.Rows(), second.Rows())
	assert.Equal(t, first.Lanes, second.Lanes)
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i], second.Nodes[i])
	}
}

func TestLayoutStabilityOnAppend(t *testing.T) {
	before := &git.Snapshot{
		Commits: []git.Commit{
			commit("e5", 5, "c3"),
			commit("d4", 4, "b2"),
			commit("c3", 3, "a1"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "d4"), branch("feature", "e5")},
		Head: git.Head{Branch: "main", Hash: "d4"},
	}
	prev := Layout(load(t, before), nil)

	// One commit appended on main
	after := &git.Snapshot{
		Commits: append([]git.Commit{commit("f6", 6, "d4")}, before.Commits...),
		Refs:    []git.Ref{branch("main", "f6"), branch("feature", "e5")},
		Head:    git.Head{Branch: "main", Hash: "f6"},
	}
	next := Layout(load(t, after), prev)

	// Every pre-existing commit keeps its coordinates
	for _, node := range prev.Nodes {
		got := requireNode(t, next, node.Hash)
		assert.Equal(t, node.Row, got.Row, "row of %s changed", node.Hash)
		assert.Equal(t, node.Lane, got.Lane, "lane of %s changed", node.Hash)
	}

	// The new commit lands above its parent on the same lane
	added := requireNode(t, next, "f6")
	parent := requireNode(t, next, "d4")
	assert.Greater(t, added.Row, parent.Row)
	assert.Equal(t, parent.Lane, added.Lane)
}

func TestLayoutDetachedHead(t *testing.T) {
	g := load(t, &git.Snapshot{
		Commits: []git.Commit{
			commit("c3", 3, "b2"),
			commit("b2", 2, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "c3")},
		Head: git.Head{Hash: "b2", Detached: true},
	})

	res := Layout(g, nil)

	// Detached HEAD claims its lineage first, so the whole first-parent
	// chain stays on lane 0
	assert.Equal(t, 1, res.Lanes)
	assert.Equal(t, 0, requireNode(t, res, "b2").Lane)
}

func TestLayoutLaneReuseAfterBranchEnds(t *testing.T) {
	// Two short-lived branches whose row intervals do not overlap may share
	// a lane
	//
	//	a1 <- b2 <- d4 <- f6   (main)
	//	  \     \
	//	   c3    e5            (old, new)
	g := load(t, &git.Snapshot{
		Commits: []git.Commit{
			commit("f6", 6, "d4"),
			commit("e5", 5, "d4"),
			commit("d4", 4, "b2"),
			commit("c3", 2, "a1"),
			commit("b2", 3, "a1"),
			commit("a1", 1),
		},
		Refs: []git.Ref{branch("main", "f6"), branch("old", "c3"), branch("new", "e5")},
		Head: git.Head{Branch: "main", Hash: "f6"},
	})

	res := Layout(g, nil)

	// The main line never leaves lane 0 and the side branches never use
	// more than one extra lane
	assert.Equal(t, 0, requireNode(t, res, "f6").Lane)
	assert.Equal(t, 0, requireNode(t, res, "a1").Lane)
	assert.LessOrEqual(t, res.Lanes, 2)
}
