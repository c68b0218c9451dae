package view

import (
	"fmt"
	"strings"

	"tensorscope/internal/tui/components"
	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/model"
	"tensorscope/internal/tui/utils"
)

// FooterText is the position summary shown when no message is pending.
func FooterText(m *model.Model) string {
	e := m.Engine
	n := e.Len()
	if e.Filter() != "" && n == 0 {
		return fmt.Sprintf("No results found for %q | esc clears the search", e.Filter())
	}

	selected := 0
	if n > 0 {
		selected = e.SelectedIndex() + 1
	}
	text := fmt.Sprintf("Total Parameters: %s | Selected: %d/%d | Scroll: %d",
		utils.FormatParameters(e.Catalog().Parameters()), selected, n, e.ScrollOffset())
	if e.Filter() != "" {
		text += fmt.Sprintf(" | Matches: %d", n)
	}
	return text
}

func renderStatusBar(m *model.Model, width int) string {
	return components.NewStatusBar(width).
		WithLeftText(FooterText(m)).
		WithRightText("? help").
		WithMessage(m.StatusBarMessage, m.StatusBarMessageType).
		Render()
}

func renderHeader(m *model.Model, width int) string {
	cat := m.Engine.Catalog()
	totals := []string{
		utils.Plural(cat.TensorCount(), "tensor"),
		utils.FormatParameters(cat.Parameters()) + " params",
		utils.FormatSize(cat.TotalBytes()),
	}
	return components.NewHeader("tensorscope").
		WithSubtitle(m.Title).
		WithRightContent(strings.Join(totals, " · ")).
		WithWidth(width).
		Render()
}

func renderSearchBar(m *model.Model, width int) string {
	if m.CurrentAppMode == model.ModeSearch {
		return utils.TruncateString(m.SearchInput.View(), width)
	}
	line := design.SearchPromptStyle.Render(SafeIcon(IconSearch)+m.Engine.Filter()) +
		design.DimStyle.Render(fmt.Sprintf("  (%d matches, tab shows in tree, esc clears)", m.Engine.Len()))
	return utils.TruncateString(line, width)
}
