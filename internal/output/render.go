package output

import (
	"fmt"
	"strings"

	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/layout"
	"twiggy.dev/twiggy/internal/model"
)

// RenderGraph draws a laid-out commit graph as text, one line per commit,
// newest first. Each lane is a two-character column: the commit's own lane
// shows a node marker, lanes carrying a branch through this row show a bar.
func RenderGraph(g *model.Graph, res *layout.Result) []string {
	if len(res.Nodes) == 0 {
		return nil
	}

	active := laneSpans(res)
	head := g.Head()

	var lines []string
	for _, node := range res.Nodes {
		var b strings.Builder
		for lane := 0; lane < res.Lanes; lane++ {
			switch {
			case lane == node.Lane:
				marker := "◯"
				if node.Hash == head.Hash {
					marker = "◉"
				}
				b.WriteString(LaneColor(marker, lane))
				b.WriteString(" ")
			case active[lane].min < node.Row && node.Row < active[lane].max:
				b.WriteString(LaneColor("│", lane))
				b.WriteString(" ")
			default:
				b.WriteString("  ")
			}
		}

		commit, _ := g.Commit(node.Hash)
		b.WriteString(" ")
		b.WriteString(LaneColor(commit.ShortHash(), node.Lane))

		for _, ref := range g.RefsAt(node.Hash) {
			isHead := !head.Detached && ref.Kind == git.RefKindBranch && ref.Name == head.Branch
			b.WriteString(" ")
			b.WriteString(RefLabel(ref.Name, isHead))
		}

		b.WriteString(" ")
		b.WriteString(commit.Summary())
		b.WriteString(" ")
		b.WriteString(Dim(fmt.Sprintf("(%s)", commit.Author.Name)))

		lines = append(lines, b.String())
	}

	return lines
}

type span struct{ min, max int }

// laneSpans computes, for each lane, the row interval over which it carries
// commits or connectors
func laneSpans(res *layout.Result) map[int]span {
	spans := make(map[int]span)
	touch := func(lane, row int) {
		s, ok := spans[lane]
		if !ok {
			spans[lane] = span{row, row}
			return
		}
		if row < s.min {
			s.min = row
		}
		if row > s.max {
			s.max = row
		}
		spans[lane] = s
	}

	for _, node := range res.Nodes {
		touch(node.Lane, node.Row)
		for _, seg := range node.Parents {
			touch(seg.FromLane, seg.FromRow)
			touch(seg.ToLane, seg.ToRow)
		}
	}
	return spans
}
