package components

import (
	"strings"

	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/utils"

	"github.com/charmbracelet/lipgloss"
)

// PanelType selects the accent color of a panel border.
type PanelType int

const (
	PanelTypeDefault PanelType = iota
	PanelTypeGroup
	PanelTypeTensor
	PanelTypeMetadata
	PanelTypeError
)

// String returns the panel type name.
func (pt PanelType) String() string {
	switch pt {
	case PanelTypeDefault:
		return "Default"
	case PanelTypeGroup:
		return "Group"
	case PanelTypeTensor:
		return "Tensor"
	case PanelTypeMetadata:
		return "Metadata"
	case PanelTypeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Panel is a bordered box with a title line and clipped content.
type Panel struct {
	Title   string
	Content string
	Width   int
	Height  int
	Type    PanelType
	Icon    string
}

// NewPanel creates a new panel with default settings
func NewPanel(title string) *Panel {
	return &Panel{
		Title:  title,
		Width:  design.MinPanelWidth,
		Height: design.MinPanelHeight,
		Type:   PanelTypeDefault,
	}
}

// WithContent sets the panel content
func (p *Panel) WithContent(content string) *Panel {
	p.Content = content
	return p
}

// WithDimensions sets the outer panel dimensions
func (p *Panel) WithDimensions(width, height int) *Panel {
	p.Width = width
	p.Height = height
	return p
}

// WithType sets the panel type for styling
func (p *Panel) WithType(panelType PanelType) *Panel {
	p.Type = panelType
	return p
}

// WithIcon sets an icon shown before the title
func (p *Panel) WithIcon(icon string) *Panel {
	p.Icon = icon
	return p
}

// Render returns the styled panel. Content lines are cut to the inner
// width and the line count to the inner height.
func (p *Panel) Render() string {
	if p.Width < design.MinPanelWidth {
		p.Width = design.MinPanelWidth
	}
	if p.Height < design.MinPanelHeight {
		p.Height = design.MinPanelHeight
	}

	style := p.getStyle()
	innerWidth := max(p.Width-style.GetHorizontalFrameSize(), 1)
	innerHeight := max(p.Height-style.GetVerticalFrameSize(), 1)

	var lines []string
	if p.Title != "" {
		lines = append(lines, p.renderTitle(innerWidth))
	}

	if p.Content != "" {
		contentLines := strings.Split(p.Content, "\n")
		available := innerHeight - len(lines)
		if available > 0 && len(contentLines) > available {
			contentLines = append(contentLines[:available-1], design.DimStyle.Render("..."))
		}
		for _, line := range contentLines {
			if lipgloss.Width(line) > innerWidth {
				line = utils.TruncateString(line, innerWidth)
			}
			lines = append(lines, line)
		}
	}

	if len(lines) > innerHeight {
		lines = lines[:innerHeight]
	}

	// Width and Height on a lipgloss style exclude the border.
	return style.
		Width(p.Width - style.GetHorizontalBorderSize()).
		Height(p.Height - style.GetVerticalBorderSize()).
		Render(strings.Join(lines, "\n"))
}

func (p *Panel) getStyle() lipgloss.Style {
	switch p.Type {
	case PanelTypeGroup:
		return design.PanelStyle.BorderForeground(design.ColorGroup)
	case PanelTypeTensor:
		return design.PanelStyle.BorderForeground(design.ColorTensor)
	case PanelTypeMetadata:
		return design.PanelStyle.BorderForeground(design.ColorMetadata)
	case PanelTypeError:
		return design.PanelStyle.BorderForeground(design.ColorError)
	default:
		return design.PanelStyle
	}
}

func (p *Panel) renderTitle(width int) string {
	if p.Title == "" {
		return ""
	}
	title := p.Title
	if p.Icon != "" {
		title = p.Icon + title
	}
	if lipgloss.Width(title) > width {
		title = utils.TruncateString(title, width)
	}
	return design.TitleStyle.Render(title)
}
