package components

import (
	"tensorscope/internal/tui/design"

	"github.com/charmbracelet/lipgloss"
)

// Layout splits the terminal between the tree and the detail panel.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a new layout manager
func NewLayout(width, height int) *Layout {
	return &Layout{
		Width:  width,
		Height: height,
	}
}

// SplitVertical returns the tree and detail widths. The detail width is
// zero when the terminal is too narrow for a side panel.
func (l *Layout) SplitVertical(detailEnabled bool) (treeWidth, detailWidth int) {
	if !detailEnabled || l.Width < design.DetailPanelMinTerminalWidth {
		return l.Width, 0
	}
	detailWidth = design.DetailPanelWidth
	return l.Width - detailWidth, detailWidth
}

// CalculateContentArea returns the height left after header and status bar.
func (l *Layout) CalculateContentArea(headerHeight, statusBarHeight int) int {
	contentHeight := l.Height - headerHeight - statusBarHeight
	if contentHeight < 0 {
		contentHeight = 0
	}
	return contentHeight
}

// JoinHorizontal joins components side by side, top aligned.
func JoinHorizontal(components ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, components...)
}

// JoinVertical joins components vertically
func JoinVertical(components ...string) string {
	return lipgloss.JoinVertical(lipgloss.Left, components...)
}

// CenterContent centers content within the given dimensions
func CenterContent(width, height int, content string) string {
	return design.CenterVertical(height, design.CenterHorizontal(width, content))
}
