package refresh

import (
	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/layout"
	"twiggy.dev/twiggy/internal/model"
)

// Diff describes what changed between two refresh cycles, so the
// presentation layer can animate or redraw incrementally
type Diff struct {
	AddedCommits   []string
	RemovedCommits []string
	// MovedCommits are commits present in both layouts whose row or lane changed
	MovedCommits []string

	AddedRefs   []git.Ref
	RemovedRefs []git.Ref
	// MovedRefs are refs present in both graphs that now point elsewhere
	MovedRefs []git.Ref
}

// Empty reports whether the diff carries no changes
func (d Diff) Empty() bool {
	return len(d.AddedCommits) == 0 && len(d.RemovedCommits) == 0 &&
		len(d.MovedCommits) == 0 && len(d.AddedRefs) == 0 &&
		len(d.RemovedRefs) == 0 && len(d.MovedRefs) == 0
}

func diff(oldGraph, newGraph *model.Graph, oldLayout, newLayout *layout.Result) Diff {
	var d Diff
	if oldGraph == nil {
		for _, c := range newGraph.Commits() {
			d.AddedCommits = append(d.AddedCommits, c.Hash)
		}
		d.AddedRefs = append(d.AddedRefs, newGraph.Refs()...)
		return d
	}

	for _, c := range newGraph.Commits() {
		if _, ok := oldGraph.Commit(c.Hash); !ok {
			d.AddedCommits = append(d.AddedCommits, c.Hash)
		}
	}
	for _, c := range oldGraph.Commits() {
		if _, ok := newGraph.Commit(c.Hash); !ok {
			d.RemovedCommits = append(d.RemovedCommits, c.Hash)
		}
	}

	if oldLayout != nil && newLayout != nil {
		for _, node := range newLayout.Nodes {
			prev, ok := oldLayout.Node(node.Hash)
			if ok && (prev.Row != node.Row || prev.Lane != node.Lane) {
				d.MovedCommits = append(d.MovedCommits, node.Hash)
			}
		}
	}

	oldRefs := refMap(oldGraph)
	newRefs := refMap(newGraph)
	for key, ref := range newRefs {
		old, ok := oldRefs[key]
		switch {
		case !ok:
			d.AddedRefs = append(d.AddedRefs, ref)
		case old.Hash != ref.Hash:
			d.MovedRefs = append(d.MovedRefs, ref)
		}
	}
	for key, ref := range oldRefs {
		if _, ok := newRefs[key]; !ok {
			d.RemovedRefs = append(d.RemovedRefs, ref)
		}
	}

	return d
}

func refMap(g *model.Graph) map[string]git.Ref {
	refs := make(map[string]git.Ref)
	for _, ref := range g.Refs() {
		refs[ref.Kind.String()+"/"+ref.Name] = ref
	}
	return refs
}
