// Package layout turns a commit graph into deterministic 2D lane/row
// coordinates for rendering. Output is pure data: rows, lanes and explicit
// connector segments, with no drawing concerns.
package layout

import (
	"container/heap"
	"sort"

	"twiggy.dev/twiggy/internal/model"
)

// Node is the derived visual position of one commit for a single layout pass
type Node struct {
	Hash    string
	Row     int // increases with topological order: a parent's row is always below its child's
	Lane    int
	Parents []Segment
}

// Segment is an explicit connector line from a commit to one of its parents,
// ready for a renderer to draw without recomputation
type Segment struct {
	ParentHash string
	FromRow    int
	FromLane   int
	ToRow      int
	ToLane     int
}

// Result holds the coordinates of an entire layout pass.
// Nodes are ordered newest-first (descending row).
type Result struct {
	Nodes []Node
	Lanes int
	index map[string]int
}

// Node looks up the laid-out node for a commit hash
func (r *Result) Node(hash string) (Node, bool) {
	i, ok := r.index[hash]
	if !ok {
		return Node{}, false
	}
	return r.Nodes[i], true
}

// Rows returns the number of rows in the layout
func (r *Result) Rows() int {
	return len(r.Nodes)
}

// lineage is one branch ancestry claimed by a ref (or by an unreferenced
// head commit), occupying a single lane
type lineage struct {
	ref      string // owning ref short name, empty for unreferenced lineages
	commits  []string
	minRow   int
	maxRow   int
	forkLane int // lane of the first-parent the lineage forks from, -1 if none
	lane     int
}

// Layout computes coordinates for every commit in the graph.
//
// Rows come from a Kahn topological sort, parents first, with ties broken by
// committer time then hash, so identical graphs always produce identical
// output. Lanes group commits by the most important ref lineage reaching
// them (HEAD, then local branches, then remote branches, then tags, then
// unreferenced), claimed by a first-parent walk from each tip,
// first-claim-wins. Lane packing is a greedy nearest-lane heuristic, not
// true crossing minimization.
//
// When prev is supplied, lineages whose ref already had a lane keep it
// whenever the new row intervals allow, so a local append does not reshuffle
// the picture.
func Layout(g *model.Graph, prev *Result) *Result {
	res := &Result{index: make(map[string]int)}
	if g.Len() == 0 {
		return res
	}

	rows := assignRows(g)
	lanes := assignLanes(g, rows, prev)

	nodes := make([]Node, 0, g.Len())
	for hash, row := range rows {
		nodes = append(nodes, Node{Hash: hash, Row: row, Lane: lanes[hash]})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Row > nodes[j].Row })

	maxLane := 0
	for i := range nodes {
		if nodes[i].Lane > maxLane {
			maxLane = nodes[i].Lane
		}
		res.index[nodes[i].Hash] = i
	}
	res.Lanes = maxLane + 1

	// Connector segments to each rendered parent
	for i := range nodes {
		commit, _ := g.Commit(nodes[i].Hash)
		for _, parent := range commit.Parents {
			nodes[i].Parents = append(nodes[i].Parents, Segment{
				ParentHash: parent,
				FromRow:    nodes[i].Row,
				FromLane:   nodes[i].Lane,
				ToRow:      rows[parent],
				ToLane:     lanes[parent],
			})
		}
	}

	res.Nodes = nodes
	return res
}

// rowHeap orders ready commits oldest committer time first, ties by hash
type rowHeap struct {
	hashes []string
	g      *model.Graph
}

func (h *rowHeap) Len() int { return len(h.hashes) }
func (h *rowHeap) Less(i, j int) bool {
	a, _ := h.g.Commit(h.hashes[i])
	b, _ := h.g.Commit(h.hashes[j])
	if !a.Committer.When.Equal(b.Committer.When) {
		return a.Committer.When.Before(b.Committer.When)
	}
	return a.Hash < b.Hash
}
func (h *rowHeap) Swap(i, j int) { h.hashes[i], h.hashes[j] = h.hashes[j], h.hashes[i] }
func (h *rowHeap) Push(x any)    { h.hashes = append(h.hashes, x.(string)) }
func (h *rowHeap) Pop() any {
	old := h.hashes
	n := len(old)
	x := old[n-1]
	h.hashes = old[:n-1]
	return x
}

// assignRows runs Kahn's algorithm parents-first. Roots get the lowest rows;
// every commit lands strictly above all of its parents. Numbering from the
// roots keeps existing rows stable when new commits are appended on top.
func assignRows(g *model.Graph) map[string]int {
	pending := make(map[string]int, g.Len())
	ready := &rowHeap{g: g}

	for _, c := range g.Commits() {
		pending[c.Hash] = len(c.Parents)
		if len(c.Parents) == 0 {
			heap.Push(ready, c.Hash)
		}
	}

	rows := make(map[string]int, g.Len())
	row := 0
	for ready.Len() > 0 {
		hash := heap.Pop(ready).(string)
		rows[hash] = row
		row++
		for _, child := range g.Children(hash) {
			pending[child]--
			if pending[child] == 0 {
				heap.Push(ready, child)
			}
		}
	}

	return rows
}
