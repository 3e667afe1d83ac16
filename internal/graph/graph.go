// Package graph builds the declared-dependency graph and checks its
// structural consistency: broken references, missing backlinks, cycles,
// stale links. It only ever reads the snapshot.
package graph

import (
	"sort"

	"github.com/mhoffs/sprintdeps/internal/issue"
)

// Graph is a flat arena of issues with integer-index adjacency built from
// each issue's declared blocked_by set. Ids map to arena slots, edges are
// index pairs, so no structure ever points back into itself.
type Graph struct {
	snap  *issue.Snapshot
	ids   []string       // arena order: sorted ids
	index map[string]int // id -> arena slot

	// blocks[i] lists the slots i blocks: edges run blocker -> blocked.
	blocks [][]int
}

// Build constructs the graph from a snapshot. Declared targets that do not
// exist in the corpus, and self-references, are left out of the adjacency;
// the validator reports them as findings instead.
func Build(snap *issue.Snapshot) *Graph {
	g := &Graph{
		snap:  snap,
		ids:   snap.IDs(),
		index: make(map[string]int, snap.Len()),
	}
	for i, id := range g.ids {
		g.index[id] = i
	}

	g.blocks = make([][]int, len(g.ids))
	for i, id := range g.ids {
		iss := snap.Get(id)
		for blockerID := range iss.BlockedBy {
			j, exists := g.index[blockerID]
			if !exists || j == i {
				continue
			}
			g.blocks[j] = append(g.blocks[j], i)
		}
	}
	for i := range g.blocks {
		sort.Ints(g.blocks[i])
	}

	return g
}

// Len returns the number of issues in the graph.
func (g *Graph) Len() int {
	return len(g.ids)
}

// IDs returns the arena order, which is sorted id order.
func (g *Graph) IDs() []string {
	return g.ids
}

// Issue returns the issue at an arena slot.
func (g *Graph) Issue(i int) *issue.Issue {
	return g.snap.Get(g.ids[i])
}

// Blocked returns the slots blocked by slot i.
func (g *Graph) Blocked(i int) []int {
	return g.blocks[i]
}

// reachable reports whether `to` can be reached from `from` along blocker ->
// blocked edges, optionally skipping one direct edge. Used by the redundancy
// check; the corpus scale keeps repeated traversals cheap.
func (g *Graph) reachable(from, to int, skipFrom, skipTo int) bool {
	seen := make([]bool, len(g.ids))
	stack := []int{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, next := range g.blocks[cur] {
			if cur == skipFrom && next == skipTo {
				continue
			}
			if next == to {
				return true
			}
			if !seen[next] {
				stack = append(stack, next)
			}
		}
	}
	return false
}
