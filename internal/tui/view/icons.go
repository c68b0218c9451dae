package view

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Icon constants
const (
	IconExpanded  = "▼"
	IconCollapsed = "▶"
	IconFolder    = "📁"
	IconTensor    = "📄"
	IconTag       = "🏷"
	IconScroll    = "📜"
	IconSearch    = "🔍"
	IconInfo      = "ℹ"
	IconQuestion  = "❓"
)

// SafeIcon appends the spacing an icon needs so it does not swallow the
// next character: one space for single-cell icons, two for wide ones.
func SafeIcon(icon string) string {
	spaces := 1
	if runewidth.StringWidth(icon) >= 2 {
		spaces = 2
	}
	return icon + strings.Repeat(" ", spaces)
}

// IconText formats an icon with text, handling spacing properly
func IconText(icon string, text string) string {
	return SafeIcon(icon) + text
}
