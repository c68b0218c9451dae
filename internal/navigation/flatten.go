package navigation

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"tensorscope/internal/catalog"
)

func (e *Engine) ensureFresh() {
	if e.stale {
		e.RebuildFlatView()
	}
}

// RebuildFlatView recomputes the visible rows. The selected node stays
// selected when it is still visible; otherwise the selection moves to the
// nearest row above it that still is, which after a collapse is the
// collapsed group itself.
func (e *Engine) RebuildFlatView() {
	old, oldIdx := e.flat, e.selected

	if e.filter != "" {
		e.flat = e.filtered()
	} else {
		e.flat = e.flatten()
	}
	e.stale = false

	e.selected = e.restoreSelection(old, oldIdx)
	e.ensureVisible()
}

func (e *Engine) flatten() []entry {
	var out []entry
	var visit func(n *catalog.Node, depth int)
	visit = func(n *catalog.Node, depth int) {
		out = append(out, entry{node: n, depth: depth})
		if n.IsGroup() && e.expanded[n] {
			for _, c := range n.Children() {
				visit(c, depth+1)
			}
		}
	}
	if e.cat.Metadata != nil {
		visit(e.cat.Metadata, 0)
	}
	for _, c := range e.cat.Root.Children() {
		visit(c, 0)
	}
	return out
}

// filtered lists matching leaves in tree order, all at depth 0.
func (e *Engine) filtered() []entry {
	var leaves []*catalog.Node
	var visit func(n *catalog.Node)
	visit = func(n *catalog.Node) {
		if !n.IsGroup() {
			leaves = append(leaves, n)
			return
		}
		for _, c := range n.Children() {
			visit(c)
		}
	}
	if e.cat.Metadata != nil {
		visit(e.cat.Metadata)
	}
	visit(e.cat.Root)

	labels := make([]string, len(leaves))
	for i, n := range leaves {
		labels[i] = n.Path()
	}

	matches := fuzzy.Find(e.filter, labels)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Index < matches[j].Index
	})

	out := make([]entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entry{node: leaves[m.Index], matches: m.MatchedIndexes})
	}
	return out
}

func (e *Engine) restoreSelection(old []entry, oldIdx int) int {
	if len(e.flat) == 0 {
		return 0
	}
	index := make(map[*catalog.Node]int, len(e.flat))
	for i, ent := range e.flat {
		index[ent.node] = i
	}
	if oldIdx >= len(old) {
		oldIdx = len(old) - 1
	}
	for i := oldIdx; i >= 0; i-- {
		if j, ok := index[old[i].node]; ok {
			return j
		}
	}
	return 0
}
