package view

import (
	"fmt"
	"strings"

	"tensorscope/internal/catalog"
	"tensorscope/internal/navigation"
	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// MetadataValueWidth caps metadata values shown inline in a row.
const MetadataValueWidth = 50

// RowOptions controls how a row is laid out.
type RowOptions struct {
	IndentWidth int
	ShowIcons   bool
}

type segment struct {
	text  string
	style lipgloss.Style
}

// rowParts splits a row into its prefix (indent, arrow, icon), label and
// trailing details.
func rowParts(row navigation.RenderRow, opts RowOptions) (prefix, label, details string) {
	indent := strings.Repeat(" ", row.Depth*max(opts.IndentWidth, 0))

	switch row.Kind {
	case catalog.KindGroup:
		arrow := IconCollapsed
		if row.Expanded {
			arrow = IconExpanded
		}
		prefix = indent + arrow + " "
		if opts.ShowIcons {
			prefix += SafeIcon(IconFolder)
		}
		// The metadata group is the only group row with an empty path.
		if row.Path == "" {
			if row.ChildCount == 1 {
				details = " (1 entry)"
			} else {
				details = fmt.Sprintf(" (%d entries)", row.ChildCount)
			}
		} else {
			details = fmt.Sprintf(" (%s, %s)", utils.Plural(row.TensorCount, "tensor"), utils.FormatSize(row.TotalBytes))
		}

	case catalog.KindTensor:
		prefix = indent + "  "
		if opts.ShowIcons {
			prefix += SafeIcon(IconTensor)
		}
		if rec := row.Record; rec != nil {
			details = fmt.Sprintf(" [%s, %s, %s]", rec.DType, rec.ShapeString(), utils.FormatSize(rec.ByteSize))
		}

	case catalog.KindMetadata:
		prefix = indent + "  "
		if opts.ShowIcons {
			prefix += SafeIcon(IconTag)
		}
		if md := row.Metadata; md != nil {
			details = fmt.Sprintf(" [%s]: %s", md.ValueType, utils.TruncateRunes(md.Value, MetadataValueWidth))
		}
	}

	return prefix, row.Label, details
}

// RowText renders a row as plain text, as printed by list mode.
func RowText(row navigation.RenderRow, opts RowOptions) string {
	prefix, label, details := rowParts(row, opts)
	return prefix + label + details
}

// renderRow renders one tree row at most width cells wide. The selected
// row is drawn inverted as a single block.
func renderRow(row navigation.RenderRow, opts RowOptions, width int, selected bool) string {
	if selected {
		text := utils.TruncateString(RowText(row, opts), width)
		return design.ListItemSelectedStyle.Width(width).Render(text)
	}

	prefix, label, details := rowParts(row, opts)

	nameStyle := design.TensorNameStyle
	switch row.Kind {
	case catalog.KindGroup:
		nameStyle = design.GroupNameStyle
	case catalog.KindMetadata:
		nameStyle = design.MetadataKeyStyle
	}

	segs := []segment{{text: prefix, style: design.DimStyle}}
	segs = append(segs, labelSegments(label, row.Matches, nameStyle)...)
	segs = append(segs, segment{text: details, style: design.RowDetailStyle})
	return renderSegments(segs, width)
}

// labelSegments highlights the matched byte offsets of label.
func labelSegments(label string, matches []int, base lipgloss.Style) []segment {
	if len(matches) == 0 {
		return []segment{{text: label, style: base}}
	}
	hit := make(map[int]bool, len(matches))
	for _, i := range matches {
		hit[i] = true
	}

	var segs []segment
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := base
		if runHit {
			style = design.MatchStyle
		}
		segs = append(segs, segment{text: run.String(), style: style})
		run.Reset()
	}
	for i, r := range label {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return segs
}

// renderSegments styles segments left to right until width cells are used.
func renderSegments(segs []segment, width int) string {
	var b strings.Builder
	remaining := width
	for _, s := range segs {
		if remaining <= 0 {
			break
		}
		text := s.text
		if w := runewidth.StringWidth(text); w > remaining {
			text = runewidth.Truncate(text, remaining, "")
		}
		remaining -= runewidth.StringWidth(text)
		if text != "" {
			b.WriteString(s.style.Render(text))
		}
	}
	return b.String()
}
