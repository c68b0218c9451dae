// Package navigation turns a catalog into a scrollable, expandable list of
// rows and tracks selection, scroll and expansion across user input.
//
// The Engine owns all session state. The flat view is cached and rebuilt
// lazily after anything that changes visibility, so reads are cheap and
// never stale. The root's own row is suppressed: its children (and the
// metadata group, which is always first) are shown at depth 0.
//
// The Engine is not safe for concurrent use; it is driven from the
// bubbletea update loop only.
package navigation

import (
	"strings"

	"tensorscope/internal/catalog"
)

type entry struct {
	node    *catalog.Node
	depth   int
	matches []int
}

// Engine is the navigation state machine over one catalog.
type Engine struct {
	cat *catalog.Catalog

	expanded map[*catalog.Node]bool
	flat     []entry
	stale    bool

	selected int
	scroll   int
	viewport int

	filter string
}

// New returns an engine with everything collapsed and the first row
// selected.
func New(cat *catalog.Catalog, viewportHeight int) *Engine {
	e := &Engine{
		cat:      cat,
		expanded: make(map[*catalog.Node]bool),
		stale:    true,
		viewport: max(viewportHeight, 1),
	}
	e.ensureFresh()
	return e
}

// Catalog returns the catalog being navigated.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// ToggleExpand flips the expansion of a group. It is a no-op for leaves.
func (e *Engine) ToggleExpand(n *catalog.Node) {
	if n == nil || !n.IsGroup() {
		return
	}
	e.setExpanded(n, !e.expanded[n])
}

// Expand opens a group.
func (e *Engine) Expand(n *catalog.Node) {
	if n != nil && n.IsGroup() && !e.expanded[n] {
		e.setExpanded(n, true)
	}
}

// Collapse closes a group.
func (e *Engine) Collapse(n *catalog.Node) {
	if n != nil && e.expanded[n] {
		e.setExpanded(n, false)
	}
}

// IsExpanded reports whether a group is open.
func (e *Engine) IsExpanded(n *catalog.Node) bool {
	return e.expanded[n]
}

func (e *Engine) setExpanded(n *catalog.Node, open bool) {
	if open {
		e.expanded[n] = true
	} else {
		delete(e.expanded, n)
	}
	e.stale = true
}

// ExpandToDepth opens every group whose depth is below d and closes the rest.
// ExpandToDepth(1) opens the top-level groups.
func (e *Engine) ExpandToDepth(d int) {
	e.expanded = make(map[*catalog.Node]bool)
	e.forEachGroup(func(n *catalog.Node, depth int) {
		if depth < d {
			e.expanded[n] = true
		}
	})
	e.stale = true
}

// ExpandAll opens every group.
func (e *Engine) ExpandAll() {
	e.forEachGroup(func(n *catalog.Node, _ int) {
		e.expanded[n] = true
	})
	e.stale = true
}

// CollapseAll closes every group.
func (e *Engine) CollapseAll() {
	e.expanded = make(map[*catalog.Node]bool)
	e.stale = true
}

func (e *Engine) forEachGroup(fn func(n *catalog.Node, depth int)) {
	var visit func(n *catalog.Node, depth int)
	visit = func(n *catalog.Node, depth int) {
		if !n.IsGroup() {
			return
		}
		fn(n, depth)
		for _, c := range n.Children() {
			visit(c, depth+1)
		}
	}
	if e.cat.Metadata != nil {
		visit(e.cat.Metadata, 0)
	}
	for _, c := range e.cat.Root.Children() {
		visit(c, 0)
	}
}

// MoveSelection moves the selection by delta rows, clamped to the list, and
// scrolls by the minimum needed to keep it visible.
func (e *Engine) MoveSelection(delta int) {
	e.ensureFresh()
	if len(e.flat) == 0 {
		return
	}
	n := len(e.flat)
	delta = clamp(delta, -n, n)
	e.selected = clamp(e.selected+delta, 0, n-1)
	e.ensureVisible()
}

// PageDown moves the selection one viewport down.
func (e *Engine) PageDown() { e.MoveSelection(e.viewport) }

// PageUp moves the selection one viewport up.
func (e *Engine) PageUp() { e.MoveSelection(-e.viewport) }

// SelectFirst selects the first row.
func (e *Engine) SelectFirst() {
	e.ensureFresh()
	e.selected = 0
	e.ensureVisible()
}

// SelectLast selects the last row.
func (e *Engine) SelectLast() {
	e.ensureFresh()
	e.selected = max(len(e.flat)-1, 0)
	e.ensureVisible()
}

// JumpToParent selects the group that contains the selected row. It does
// nothing at depth 0 or while filtering.
func (e *Engine) JumpToParent() {
	e.ensureFresh()
	if len(e.flat) == 0 || e.filter != "" {
		return
	}
	depth := e.flat[e.selected].depth
	if depth == 0 {
		return
	}
	for i := e.selected - 1; i >= 0; i-- {
		if e.flat[i].depth == depth-1 {
			e.selected = i
			e.ensureVisible()
			return
		}
	}
}

// CollapseOrJumpToParent collapses the selected group if it is open and
// otherwise selects its parent.
func (e *Engine) CollapseOrJumpToParent() {
	row, ok := e.Selected()
	if !ok {
		return
	}
	if row.IsGroup && row.Expanded && e.filter == "" {
		e.Collapse(row.Node)
		e.ensureFresh()
		return
	}
	e.JumpToParent()
}

// ExpandOrDescend opens the selected group, or selects its first child when
// it is already open.
func (e *Engine) ExpandOrDescend() {
	row, ok := e.Selected()
	if !ok || !row.IsGroup || e.filter != "" {
		return
	}
	if !row.Expanded {
		e.Expand(row.Node)
		e.ensureFresh()
		return
	}
	if row.Node.Len() > 0 {
		e.MoveSelection(1)
	}
}

// ActivationKind says what Activate did.
type ActivationKind int

const (
	// ActivateNone: nothing is selected.
	ActivateNone ActivationKind = iota
	// ActivateToggled: the selected group was expanded or collapsed.
	ActivateToggled
	// ActivateDetail: the selected row is a leaf; show its details.
	ActivateDetail
)

// Activation is the result of Activate.
type Activation struct {
	Kind ActivationKind
	Row  RenderRow
}

// Activate toggles the selected group, or reports the selected leaf for a
// detail view. The detail case does not change any state.
func (e *Engine) Activate() Activation {
	row, ok := e.Selected()
	if !ok {
		return Activation{Kind: ActivateNone}
	}
	if row.IsGroup {
		if e.filter != "" {
			return Activation{Kind: ActivateNone, Row: row}
		}
		e.ToggleExpand(row.Node)
		e.ensureFresh()
		row, _ = e.Selected()
		return Activation{Kind: ActivateToggled, Row: row}
	}
	return Activation{Kind: ActivateDetail, Row: row}
}

// Reveal leaves filter mode, opens every group above n and selects it.
// It reports whether n was found.
func (e *Engine) Reveal(n *catalog.Node) bool {
	if n == nil {
		return false
	}
	e.filter = ""
	e.stale = true

	switch n.Kind() {
	case catalog.KindMetadata:
		e.Expand(e.cat.Metadata)
	default:
		segments := strings.Split(n.Path(), ".")
		for i := 1; i < len(segments); i++ {
			e.Expand(e.cat.Find(strings.Join(segments[:i], ".")))
		}
	}
	e.ensureFresh()

	for i, ent := range e.flat {
		if ent.node == n {
			e.selected = i
			e.ensureVisible()
			return true
		}
	}
	return false
}

// SetFilter switches to filter mode for a non-empty query: the view becomes
// every leaf whose full path fuzzy-matches the query, in tree order. An
// empty query returns to the tree.
func (e *Engine) SetFilter(query string) {
	if query == e.filter {
		return
	}
	e.filter = query
	e.stale = true
	e.ensureFresh()
}

// Filter returns the active filter query.
func (e *Engine) Filter() string {
	return e.filter
}

// SetViewportHeight changes the number of visible rows, keeping the
// selection on screen.
func (e *Engine) SetViewportHeight(h int) {
	e.viewport = max(h, 1)
	e.ensureFresh()
	e.ensureVisible()
}

// ViewportHeight is the number of rows the renderer shows.
func (e *Engine) ViewportHeight() int {
	return e.viewport
}

// SelectedIndex is the index of the selected row in CurrentFlatView.
func (e *Engine) SelectedIndex() int {
	e.ensureFresh()
	return e.selected
}

// ScrollOffset is the index of the first visible row.
func (e *Engine) ScrollOffset() int {
	e.ensureFresh()
	return e.scroll
}

// Len is the number of rows in the flat view.
func (e *Engine) Len() int {
	e.ensureFresh()
	return len(e.flat)
}

func (e *Engine) ensureVisible() {
	h := e.viewport
	switch {
	case e.selected < e.scroll:
		e.scroll = e.selected
	case e.selected >= e.scroll+h:
		e.scroll = e.selected - h + 1
	}
	e.scroll = clamp(e.scroll, 0, max(len(e.flat)-h, 0))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
