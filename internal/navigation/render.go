package navigation

import (
	"tensorscope/internal/catalog"
	"tensorscope/internal/tensor"
)

// RenderRow is a read-only snapshot of one visible row.
type RenderRow struct {
	Node  *catalog.Node
	Depth int
	// Label is the node's own segment in tree mode and its full path in
	// filter mode.
	Label string
	// Matches are the byte offsets of Label that matched the filter.
	Matches []int

	Path     string
	Kind     catalog.Kind
	IsGroup  bool
	Expanded bool

	// Aggregates, meaningful for groups. A tensor row reports itself.
	ChildCount  int
	TensorCount int
	TotalBytes  uint64
	Parameters  uint64

	Record   *tensor.Record
	Metadata *tensor.MetadataEntry
}

func (e *Engine) row(ent entry) RenderRow {
	n := ent.node
	label := n.Name()
	if e.filter != "" {
		label = n.Path()
	}
	return RenderRow{
		Node:        n,
		Depth:       ent.depth,
		Label:       label,
		Matches:     ent.matches,
		Path:        n.Path(),
		Kind:        n.Kind(),
		IsGroup:     n.IsGroup(),
		Expanded:    e.expanded[n],
		ChildCount:  n.Len(),
		TensorCount: n.TensorCount(),
		TotalBytes:  n.TotalBytes(),
		Parameters:  n.Parameters(),
		Record:      n.Record(),
		Metadata:    n.Metadata(),
	}
}

// CurrentFlatView returns every row of the flat view.
func (e *Engine) CurrentFlatView() []RenderRow {
	e.ensureFresh()
	rows := make([]RenderRow, len(e.flat))
	for i, ent := range e.flat {
		rows[i] = e.row(ent)
	}
	return rows
}

// VisibleRows returns the rows inside the viewport.
func (e *Engine) VisibleRows() []RenderRow {
	e.ensureFresh()
	end := min(e.scroll+e.viewport, len(e.flat))
	rows := make([]RenderRow, 0, max(end-e.scroll, 0))
	for _, ent := range e.flat[e.scroll:end] {
		rows = append(rows, e.row(ent))
	}
	return rows
}

// Selected returns the selected row. ok is false when the view is empty.
func (e *Engine) Selected() (RenderRow, bool) {
	e.ensureFresh()
	if len(e.flat) == 0 {
		return RenderRow{}, false
	}
	return e.row(e.flat[e.selected]), true
}
