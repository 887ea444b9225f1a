package layout

import (
	"sort"

	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/model"
)

// refPriority ranks ref tips for lineage claiming: HEAD's branch wins,
// then local branches, then remote branches, then tags
func refPriority(g *model.Graph, ref git.Ref) int {
	head := g.Head()
	if ref.Kind == git.RefKindBranch && !head.Detached && ref.Name == head.Branch {
		return 0
	}
	switch ref.Kind {
	case git.RefKindBranch:
		return 1
	case git.RefKindRemoteBranch:
		return 2
	default:
		return 3
	}
}

// assignLanes groups commits into lineages and packs lineages into lanes
func assignLanes(g *model.Graph, rows map[string]int, prev *Result) map[string]int {
	tips := orderedTips(g)

	owner := make(map[string]int, g.Len()) // commit hash -> lineage index
	var lineages []lineage

	claim := func(tip string, ref string) {
		if _, taken := owner[tip]; taken {
			return
		}
		ln := lineage{ref: ref, forkLane: -1}
		idx := len(lineages)
		current := tip
		for {
			if _, taken := owner[current]; taken {
				break
			}
			owner[current] = idx
			ln.commits = append(ln.commits, current)
			commit, _ := g.Commit(current)
			if len(commit.Parents) == 0 {
				break
			}
			current = commit.Parents[0]
		}
		lineages = append(lineages, ln)
	}

	for _, tip := range tips {
		claim(tip.hash, tip.ref)
	}

	// Unreferenced commits (e.g. reachable only through merge second parents)
	// form their own lineages, claimed newest-first for determinism
	for _, c := range g.Commits() {
		if _, taken := owner[c.Hash]; !taken {
			claim(c.Hash, "")
		}
	}

	for i := range lineages {
		ln := &lineages[i]
		ln.minRow = rows[ln.commits[0]]
		ln.maxRow = ln.minRow
		for _, hash := range ln.commits {
			if rows[hash] < ln.minRow {
				ln.minRow = rows[hash]
			}
			if rows[hash] > ln.maxRow {
				ln.maxRow = rows[hash]
			}
		}
	}

	packLanes(g, lineages, owner, prev)

	laneOf := make(map[string]int, g.Len())
	for hash, idx := range owner {
		laneOf[hash] = lineages[idx].lane
	}
	return laneOf
}

type tip struct {
	hash string
	ref  string
}

// orderedTips lists ref tips in claiming priority order. Within a priority
// class, ties go to the newer tip commit, then the ref name alphabetically.
func orderedTips(g *model.Graph) []tip {
	refs := append([]git.Ref(nil), g.Refs()...)
	sort.SliceStable(refs, func(i, j int) bool {
		pi, pj := refPriority(g, refs[i]), refPriority(g, refs[j])
		if pi != pj {
			return pi < pj
		}
		a, _ := g.Commit(refs[i].Hash)
		b, _ := g.Commit(refs[j].Hash)
		if !a.Committer.When.Equal(b.Committer.When) {
			return a.Committer.When.After(b.Committer.When)
		}
		return refs[i].Name < refs[j].Name
	})

	var tips []tip

	// Detached HEAD outranks every ref
	head := g.Head()
	if head.Detached && head.Hash != "" {
		tips = append(tips, tip{hash: head.Hash, ref: "HEAD"})
	}

	for _, ref := range refs {
		tips = append(tips, tip{hash: ref.Hash, ref: ref.Name})
	}
	return tips
}

// packLanes assigns each lineage a lane. Lineages are processed in claiming
// order; each takes the nearest lane to its fork parent's lane that is free
// over the lineage's row interval. This is a greedy heuristic: it avoids most
// crossings between interleaved branches but does not minimize them.
func packLanes(g *model.Graph, lineages []lineage, owner map[string]int, prev *Result) {
	type interval struct{ min, max int }
	occupied := make(map[int][]interval)

	free := func(lane int, ln *lineage) bool {
		for _, iv := range occupied[lane] {
			if ln.minRow <= iv.max && iv.min <= ln.maxRow {
				return false
			}
		}
		return true
	}
	take := func(lane int, ln *lineage) {
		occupied[lane] = append(occupied[lane], interval{ln.minRow, ln.maxRow})
		ln.lane = lane
	}

	for i := range lineages {
		ln := &lineages[i]

		// The lane this lineage forks away from: the lane of the first
		// parent below its oldest claimed commit
		oldest := ln.commits[len(ln.commits)-1]
		if commit, ok := g.Commit(oldest); ok && len(commit.Parents) > 0 {
			if parentIdx, ok := owner[commit.Parents[0]]; ok && parentIdx < i {
				ln.forkLane = lineages[parentIdx].lane
			}
		}

		// Stability: a ref that already had a lane keeps it when possible
		if prev != nil && ln.ref != "" {
			if lane, ok := prevLaneOf(prev, ln); ok && free(lane, ln) {
				take(lane, ln)
				continue
			}
		}

		start := ln.forkLane
		if start < 0 {
			start = 0
		}
		for offset := 0; ; offset++ {
			if lane := start + offset; free(lane, ln) {
				take(lane, ln)
				break
			}
			if lane := start - offset; offset > 0 && lane >= 0 && free(lane, ln) {
				take(lane, ln)
				break
			}
		}
	}
}

// prevLaneOf finds the lane this lineage's commits occupied in the previous
// layout, preferring the newest commit both layouts know about
func prevLaneOf(prev *Result, ln *lineage) (int, bool) {
	for _, hash := range ln.commits {
		if node, ok := prev.Node(hash); ok {
			return node.Lane, true
		}
	}
	return 0, false
}
