package view

import (
	"fmt"
	"strings"

	"tensorscope/internal/catalog"
	"tensorscope/internal/navigation"
	"tensorscope/internal/tui/components"
	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/model"
	"tensorscope/internal/tui/utils"

	"github.com/charmbracelet/lipgloss"
)

// Field is one labelled line of the detail view.
type Field struct {
	Label string
	Value string
}

// DetailFields describes the row for the detail panel and overlay.
func DetailFields(m *model.Model, row navigation.RenderRow) []Field {
	switch row.Kind {
	case catalog.KindTensor:
		rec := row.Record
		if rec == nil {
			return nil
		}
		fields := []Field{
			{"Name", rec.Name},
			{"Data type", rec.DType.String()},
			{"Shape", rec.ShapeString()},
			{"Elements", utils.FormatCount(rec.Elements())},
			{"Size", fmt.Sprintf("%s (%s bytes)", utils.FormatSize(rec.ByteSize), utils.FormatCount(rec.ByteSize))},
			{"Offset", utils.FormatCount(rec.Offset)},
		}
		if path := m.SourcePath(rec.SourceIndex); path != "" {
			fields = append(fields, Field{"File", path})
		}
		if manifest := m.SourceManifest(rec.SourceIndex); manifest != "" {
			fields = append(fields, Field{"Index", manifest})
		}
		return fields

	case catalog.KindMetadata:
		md := row.Metadata
		if md == nil {
			return nil
		}
		fields := []Field{
			{"Key", md.Key},
			{"Type", md.ValueType},
			{"Value", md.Value},
		}
		if path := m.SourcePath(md.SourceIndex); path != "" {
			fields = append(fields, Field{"File", path})
		}
		return fields

	default:
		if row.Path == "" {
			return []Field{
				{"Group", catalog.MetadataGroupName},
				{"Entries", utils.FormatCount(uint64(row.ChildCount))},
			}
		}
		return []Field{
			{"Group", row.Path},
			{"Children", utils.FormatCount(uint64(row.ChildCount))},
			{"Tensors", utils.FormatCount(uint64(row.TensorCount))},
			{"Parameters", fmt.Sprintf("%s (%s)", utils.FormatParameters(row.Parameters), utils.FormatCount(row.Parameters))},
			{"Size", utils.FormatSize(row.TotalBytes)},
		}
	}
}

// DetailContent renders the fields of a row for a viewport of the given
// width. Long values wrap under their value column.
func DetailContent(m *model.Model, row navigation.RenderRow, width int) string {
	labelWidth := design.DetailLabelStyle.GetWidth()
	valueWidth := max(width-labelWidth, 10)

	var lines []string
	for _, f := range DetailFields(m, row) {
		value := lipgloss.NewStyle().Width(valueWidth).Render(f.Value)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			design.DetailLabelStyle.Render(f.Label),
			design.DetailValueStyle.Render(value),
		))
	}
	return strings.Join(lines, "\n")
}

func panelTypeFor(kind catalog.Kind) components.PanelType {
	switch kind {
	case catalog.KindGroup:
		return components.PanelTypeGroup
	case catalog.KindTensor:
		return components.PanelTypeTensor
	case catalog.KindMetadata:
		return components.PanelTypeMetadata
	default:
		return components.PanelTypeDefault
	}
}

// renderDetailPanel draws the selected row beside the tree.
func renderDetailPanel(m *model.Model, width, height int) string {
	row, ok := m.Engine.Selected()
	if !ok {
		return components.NewPanel("Details").
			WithContent(design.EmptyCatalogStyle.Render("nothing selected")).
			WithDimensions(width, height).
			Render()
	}

	inner := width - design.PanelStyle.GetHorizontalFrameSize()
	title := row.Label
	if row.Path != "" {
		title = row.Path
	}
	return components.NewPanel(title).
		WithType(panelTypeFor(row.Kind)).
		WithContent(DetailContent(m, row, inner)).
		WithDimensions(width, height).
		Render()
}

// renderDetailOverlay draws the full detail view opened with enter.
func renderDetailOverlay(m *model.Model, width, height int) string {
	title := design.LogPanelTitleStyle.Render(SafeIcon(IconInfo) + "Details  (↑/↓ scroll  •  y copy  •  Esc close)")
	content := lipgloss.JoinVertical(lipgloss.Left, title, m.DetailViewport.View())
	return design.LogOverlayStyle.
		Width(width - design.LogOverlayStyle.GetHorizontalBorderSize()).
		Height(height - design.LogOverlayStyle.GetVerticalBorderSize()).
		Render(content)
}
