package view

import (
	"fmt"
	"strings"

	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/model"
)

// renderTree draws the visible slice of the flat view, padded to height.
func renderTree(m *model.Model, width, height int) string {
	e := m.Engine
	lines := make([]string, 0, height)

	if e.Len() == 0 {
		msg := "No tensors in the loaded files"
		if e.Filter() != "" {
			msg = fmt.Sprintf("No results found for %q", e.Filter())
		}
		lines = append(lines, design.EmptyCatalogStyle.Render(msg))
	} else {
		opts := RowOptions{IndentWidth: m.IndentWidth, ShowIcons: m.ShowIcons}
		selected := e.SelectedIndex()
		offset := e.ScrollOffset()
		for i, row := range e.VisibleRows() {
			if len(lines) == height {
				break
			}
			lines = append(lines, renderRow(row, opts, width, offset+i == selected))
		}
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
