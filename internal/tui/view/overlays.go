package view

import (
	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/model"

	"github.com/charmbracelet/lipgloss"
)

// overlayTitleHeight is the title line plus its bottom margin.
const overlayTitleHeight = 2

// OverlayViewportSize returns the viewport size that fits inside a
// full-screen log or detail overlay.
func OverlayViewportSize(width, height int) (int, int) {
	w := width - design.LogOverlayStyle.GetHorizontalFrameSize()
	h := height - design.LogOverlayStyle.GetVerticalFrameSize() - overlayTitleHeight
	return max(w, 0), max(h, 0)
}

func renderHelpOverlay(m *model.Model) string {
	title := design.HelpTitleStyle.Render(SafeIcon(IconQuestion) + "KEYBOARD SHORTCUTS")
	m.Help.ShowAll = true
	body := m.Help.View(m.Keys)
	content := lipgloss.JoinVertical(lipgloss.Center, title, body)
	return design.CenteredOverlayContainerStyle.Render(content)
}
