package model

import (
	"fmt"
	"strings"
	"time"

	"tensorscope/internal/catalog"
	"tensorscope/internal/navigation"
	"tensorscope/pkg/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultKeyMap returns a KeyMap with the default bindings used by the TUI.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first row"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last row"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "toggle group / details"),
		),
		Expand: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse / parent"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand all"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "collapse all"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Reveal: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "show match in tree"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close / clear search"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy path"),
		),
		ToggleLog: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "toggle log overlay"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
	}
}

// InitializeModel creates the browser model over a finalized catalog.
func InitializeModel(cat *catalog.Catalog, cfg TUIConfig, logChannel <-chan logging.LogEntry) *Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "tensor name"
	ti.CharLimit = 256

	indent := cfg.IndentWidth
	if indent <= 0 {
		indent = 2
	}

	engine := navigation.New(cat, 1)
	if cfg.ExpandDepth > 0 {
		engine.ExpandToDepth(cfg.ExpandDepth)
	}

	m := &Model{
		CurrentAppMode: ModeBrowse,
		LastAppMode:    ModeBrowse,
		DebugMode:      cfg.DebugMode,
		Engine:         engine,
		Title:          cfg.Title,
		Sources:        cfg.Sources,
		Report:         cfg.Report,
		IndentWidth:    indent,
		ShowIcons:      cfg.ShowIcons,
		DetailPanel:    cfg.DetailPanel,
		SearchInput:    ti,
		DetailViewport: viewport.New(0, 0),
		LogViewport:    viewport.New(0, 0),
		ActivityLog:    make([]string, 0),
		Keys:           DefaultKeyMap(),
		Help:           help.New(),
		LogChannel:     logChannel,
	}
	m.seedActivityLog(time.Now())
	return m
}

// seedActivityLog records load problems that were logged before the browser
// owned the terminal, so the log overlay can explain the start-up warning.
func (m *Model) seedActivityLog(now time.Time) {
	if m.Report == nil {
		return
	}
	stamp := now.Format("15:04:05.000")
	for _, fe := range m.Report.Skipped {
		AddRawLineToActivityLog(m, fmt.Sprintf("%s [WARN] [Loader] skipped %s -- Error: %v", stamp, fe.Path, fe.Err))
	}
	if n := m.Report.ManifestMismatches; n > 0 {
		AddRawLineToActivityLog(m, fmt.Sprintf("%s [WARN] [Loader] %d tensors found outside the shard their index file names", stamp, n))
	}
}

// Init starts listening for log records and reports skipped sources.
func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if cmd := ListenForLogEntriesCmd(m.LogChannel); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if msg := m.loadSummary(); msg != "" {
		cmds = append(cmds, m.SetStatusMessage(msg, StatusBarWarning, 2*DefaultStatusDuration))
	}
	return tea.Batch(cmds...)
}

func (m *Model) loadSummary() string {
	if m.Report == nil {
		return ""
	}
	var parts []string
	if n := len(m.Report.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d files skipped", n, len(m.Report.Sources)))
	}
	if n := m.Report.ManifestMismatches; n > 0 {
		parts = append(parts, fmt.Sprintf("%d tensors outside their indexed shard", n))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ") + " (L for details)"
}
