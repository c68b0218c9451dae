package view

import (
	"tensorscope/internal/tui/components"
	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/model"

	"github.com/charmbracelet/lipgloss"
)

// Render renders the UI according to the current model state.
func Render(m *model.Model) string {
	if m.CurrentAppMode == model.ModeQuitting {
		return m.QuittingMessage
	}
	if m.Width == 0 || m.Height == 0 || m.Engine == nil {
		return "Initializing..."
	}

	switch m.CurrentAppMode {
	case model.ModeHelpOverlay:
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, renderHelpOverlay(m))
	case model.ModeLogOverlay:
		return renderLogOverlay(m, m.Width, m.Height)
	case model.ModeDetailOverlay:
		return renderDetailOverlay(m, m.Width, m.Height)
	}

	return renderBrowser(m)
}

func renderBrowser(m *model.Model) string {
	parts := []string{renderHeader(m, m.Width)}
	if m.SearchBarVisible() {
		parts = append(parts, renderSearchBar(m, m.Width))
	}

	height := m.TreeHeight()
	layout := components.NewLayout(m.Width, height)
	treeWidth, detailWidth := layout.SplitVertical(m.DetailPanel)

	body := renderTree(m, treeWidth, height)
	if detailWidth > 0 {
		body = components.JoinHorizontal(
			lipgloss.NewStyle().Width(treeWidth).Render(body),
			renderDetailPanel(m, detailWidth, height),
		)
	}
	parts = append(parts, body, renderStatusBar(m, m.Width))

	return design.AppStyle.Width(m.Width).Render(components.JoinVertical(parts...))
}
