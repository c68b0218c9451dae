package model

import (
	"time"

	"tensorscope/internal/loader"
	"tensorscope/internal/navigation"
	"tensorscope/internal/source"
	"tensorscope/pkg/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AppMode represents the current mode of the application
type AppMode int

const (
	ModeBrowse AppMode = iota
	ModeSearch
	ModeDetailOverlay
	ModeHelpOverlay
	ModeLogOverlay
	ModeQuitting
)

// String provides a human-readable representation of the AppMode.
func (m AppMode) String() string {
	switch m {
	case ModeBrowse:
		return "Browse"
	case ModeSearch:
		return "Search"
	case ModeDetailOverlay:
		return "DetailOverlay"
	case ModeHelpOverlay:
		return "HelpOverlay"
	case ModeLogOverlay:
		return "LogOverlay"
	case ModeQuitting:
		return "Quitting"
	default:
		return "Unknown"
	}
}

// IsOverlay reports whether the mode draws over the tree.
func (m AppMode) IsOverlay() bool {
	return m == ModeDetailOverlay || m == ModeHelpOverlay || m == ModeLogOverlay
}

// MessageType represents the type of status bar message
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarError
	StatusBarWarning
)

// Constants for UI
const (
	MaxActivityLogLines = 1000

	// Rows taken by the header and the status bar.
	HeaderHeight    = 1
	StatusBarHeight = 1
	SearchBarHeight = 1

	DefaultStatusDuration = 3 * time.Second
)

// TUIConfig carries everything the browser needs from the application.
type TUIConfig struct {
	DebugMode bool
	// Title is shown in the header: the file name, or "N files".
	Title       string
	Sources     []source.Source
	Report      *loader.Report
	ExpandDepth int
	IndentWidth int
	ShowIcons   bool
	DetailPanel bool
}

// KeyMap defines all the key bindings for the application
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Toggle      key.Binding
	Expand      key.Binding
	Collapse    key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Search      key.Binding
	Reveal      key.Binding
	Esc         key.Binding
	Copy        key.Binding
	ToggleLog   key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp implements help.KeyMap. Each inner slice is one column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End},
		{k.Toggle, k.Expand, k.Collapse, k.ExpandAll, k.CollapseAll},
		{k.Search, k.Reveal, k.Esc, k.Copy, k.ToggleLog, k.Help, k.Quit},
	}
}

// Model represents the state of the tensor browser.
type Model struct {
	// Terminal dimensions
	Width  int
	Height int

	CurrentAppMode  AppMode
	LastAppMode     AppMode
	DebugMode       bool
	QuittingMessage string

	// Catalog navigation
	Engine  *navigation.Engine
	Title   string
	Sources []source.Source
	Report  *loader.Report

	// Presentation settings
	IndentWidth int
	ShowIcons   bool
	DetailPanel bool

	// UI State & Output
	SearchInput          textinput.Model
	DetailViewport       viewport.Model
	LogViewport          viewport.Model
	LogViewportLastWidth int
	ActivityLog          []string
	ActivityLogDirty     bool
	Keys                 KeyMap
	Help                 help.Model
	StatusBarMessage     string
	StatusBarMessageType MessageType
	StatusBarClearCancel chan struct{}

	// Logging
	LogChannel <-chan logging.LogEntry
}

// SetStatusMessage shows a transient message in the status bar. The
// returned command clears it after clearAfter unless a newer message
// replaced it first.
func (m *Model) SetStatusMessage(message string, msgType MessageType, clearAfter time.Duration) tea.Cmd {
	m.StatusBarMessage = message
	m.StatusBarMessageType = msgType

	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
	}

	m.StatusBarClearCancel = make(chan struct{})
	captured := m.StatusBarClearCancel

	return tea.Tick(clearAfter, func(t time.Time) tea.Msg {
		select {
		case <-captured:
			return nil
		default:
			return ClearStatusBarMsg{}
		}
	})
}

// ClearStatusMessage removes the status bar message.
func (m *Model) ClearStatusMessage() {
	m.StatusBarMessage = ""
	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
		m.StatusBarClearCancel = nil
	}
}

// SearchBarVisible reports whether a line is reserved for the search
// prompt or the active filter.
func (m *Model) SearchBarVisible() bool {
	if m.CurrentAppMode == ModeSearch {
		return true
	}
	return m.Engine != nil && m.Engine.Filter() != ""
}

// TreeHeight is the number of tree rows that fit between header and status
// bar.
func (m *Model) TreeHeight() int {
	h := m.Height - HeaderHeight - StatusBarHeight
	if m.SearchBarVisible() {
		h -= SearchBarHeight
	}
	return max(h, 1)
}

// SyncLayout pushes the current tree height into the engine.
func (m *Model) SyncLayout() {
	if m.Engine != nil {
		m.Engine.SetViewportHeight(m.TreeHeight())
	}
}

// SourcePath returns the file a record or metadata entry came from.
func (m *Model) SourcePath(index int) string {
	if index < 0 || index >= len(m.Sources) {
		return ""
	}
	return m.Sources[index].Path
}

// SourceManifest returns the index manifest that referenced a source, or
// "" when the file was given directly.
func (m *Model) SourceManifest(index int) string {
	if index < 0 || index >= len(m.Sources) || m.Sources[index].Manifest == nil {
		return ""
	}
	return m.Sources[index].Manifest.Path
}
