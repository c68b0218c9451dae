package controller

import (
	"fmt"

	"tensorscope/internal/tui/model"
	"tensorscope/internal/tui/view"
	"tensorscope/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

const controllerDispatchSubsystem = "ControllerDispatch"

// Update applies one message to the model.
func Update(msg tea.Msg, m *model.Model) (*model.Model, tea.Cmd) {
	return mainControllerDispatch(m, msg)
}

// mainControllerDispatch routes every Bubble Tea message to its handler and
// then brings layout and the log viewport up to date.
func mainControllerDispatch(m *model.Model, msg tea.Msg) (*model.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg.(type) {
	case model.NewLogEntryMsg, tea.MouseMsg:
	default:
		LogDebug(m, controllerDispatchSubsystem, "Received msg: %T", msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd = handleKeyMsg(m, msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m, cmd = handleWindowSizeMsg(m, msg)
		cmds = append(cmds, cmd)

	case model.NewLogEntryMsg:
		m = handleNewLogEntry(m, msg)
		cmds = append(cmds, model.ListenForLogEntriesCmd(m.LogChannel))

	case model.ClearStatusBarMsg:
		m.ClearStatusMessage()

	case tea.MouseMsg:
		switch m.CurrentAppMode {
		case model.ModeLogOverlay:
			m.LogViewport, cmd = m.LogViewport.Update(msg)
		case model.ModeDetailOverlay:
			m.DetailViewport, cmd = m.DetailViewport.Update(msg)
		}
		cmds = append(cmds, cmd)

	default:
		if m.CurrentAppMode == model.ModeSearch {
			m.SearchInput, cmd = m.SearchInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if m.CurrentAppMode == model.ModeQuitting {
		return m, tea.Batch(cmds...)
	}

	m.SyncLayout()

	if m.ActivityLogDirty || m.LogViewportLastWidth != m.LogViewport.Width {
		atBottom := m.LogViewport.AtBottom()
		m.LogViewport.SetContent(view.PrepareLogContent(m.ActivityLog))
		if atBottom || m.CurrentAppMode != model.ModeLogOverlay {
			m.LogViewport.GotoBottom()
		}
		m.LogViewportLastWidth = m.LogViewport.Width
		m.ActivityLogDirty = false
	}

	return m, tea.Batch(cmds...)
}

func handleWindowSizeMsg(m *model.Model, msg tea.WindowSizeMsg) (*model.Model, tea.Cmd) {
	m.Width = msg.Width
	m.Height = msg.Height

	w, h := view.OverlayViewportSize(msg.Width, msg.Height)
	m.LogViewport.Width, m.LogViewport.Height = w, h
	m.DetailViewport.Width, m.DetailViewport.Height = w, h
	m.SearchInput.Width = max(msg.Width-4, 10)
	m.Help.Width = msg.Width

	if m.CurrentAppMode == model.ModeDetailOverlay {
		refreshDetailViewport(m)
	}
	return m, nil
}

// handleNewLogEntry formats a log record into the activity log. Debug
// records only show in debug mode.
func handleNewLogEntry(m *model.Model, msg model.NewLogEntryMsg) *model.Model {
	entry := msg.Entry
	if entry.Level < logging.LevelInfo && !m.DebugMode {
		return m
	}

	logLine := fmt.Sprintf("%s [%s] [%s] %s",
		entry.Timestamp.Format("15:04:05.000"),
		entry.Level.String(),
		entry.Subsystem,
		entry.Message)
	if entry.Err != nil {
		logLine = fmt.Sprintf("%s -- Error: %v", logLine, entry.Err)
	}
	model.AddRawLineToActivityLog(m, logLine)
	return m
}

// refreshDetailViewport renders the selected row into the detail overlay.
func refreshDetailViewport(m *model.Model) {
	row, ok := m.Engine.Selected()
	if !ok {
		m.DetailViewport.SetContent("")
		return
	}
	m.DetailViewport.SetContent(view.DetailContent(m, row, m.DetailViewport.Width))
}
