package controller

import (
	"fmt"
	"strings"

	"tensorscope/internal/catalog"
	"tensorscope/internal/navigation"
	"tensorscope/internal/tui/model"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// clipboardWriteAll is replaced in tests.
var clipboardWriteAll = clipboard.WriteAll

// handleKeyMsg routes a key press according to the current mode.
func handleKeyMsg(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if keyMsg.Type == tea.KeyCtrlC {
		return quit(m)
	}

	switch m.CurrentAppMode {
	case model.ModeSearch:
		return handleKeyMsgSearchMode(m, keyMsg)
	case model.ModeHelpOverlay, model.ModeLogOverlay, model.ModeDetailOverlay:
		return handleKeyMsgOverlay(m, keyMsg)
	default:
		return handleKeyMsgBrowse(m, keyMsg)
	}
}

func quit(m *model.Model) (*model.Model, tea.Cmd) {
	m.CurrentAppMode = model.ModeQuitting
	m.QuittingMessage = ""
	return m, tea.Quit
}

func handleKeyMsgBrowse(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	e := m.Engine

	switch {
	case key.Matches(keyMsg, m.Keys.Quit):
		return quit(m)

	case key.Matches(keyMsg, m.Keys.Help):
		m.LastAppMode = m.CurrentAppMode
		m.CurrentAppMode = model.ModeHelpOverlay

	case key.Matches(keyMsg, m.Keys.ToggleLog):
		m.LastAppMode = m.CurrentAppMode
		m.CurrentAppMode = model.ModeLogOverlay
		m.LogViewport.GotoBottom()

	case key.Matches(keyMsg, m.Keys.Esc):
		if e.Filter() != "" {
			e.SetFilter("")
			m.SearchInput.Reset()
		}

	case key.Matches(keyMsg, m.Keys.Up):
		e.MoveSelection(-1)
	case key.Matches(keyMsg, m.Keys.Down):
		e.MoveSelection(1)
	case key.Matches(keyMsg, m.Keys.PageUp):
		e.PageUp()
	case key.Matches(keyMsg, m.Keys.PageDown):
		e.PageDown()
	case key.Matches(keyMsg, m.Keys.Home):
		e.SelectFirst()
	case key.Matches(keyMsg, m.Keys.End):
		e.SelectLast()

	case key.Matches(keyMsg, m.Keys.Toggle):
		act := e.Activate()
		if act.Kind == navigation.ActivateDetail {
			m.LastAppMode = m.CurrentAppMode
			m.CurrentAppMode = model.ModeDetailOverlay
			refreshDetailViewport(m)
			m.DetailViewport.GotoTop()
		}

	case key.Matches(keyMsg, m.Keys.Expand):
		e.ExpandOrDescend()
	case key.Matches(keyMsg, m.Keys.Collapse):
		e.CollapseOrJumpToParent()

	case key.Matches(keyMsg, m.Keys.ExpandAll):
		if e.Filter() == "" {
			e.ExpandAll()
			return m, m.SetStatusMessage("Expanded all groups", model.StatusBarInfo, model.DefaultStatusDuration)
		}
	case key.Matches(keyMsg, m.Keys.CollapseAll):
		if e.Filter() == "" {
			e.CollapseAll()
			e.RebuildFlatView()
		}

	case key.Matches(keyMsg, m.Keys.Search):
		m.CurrentAppMode = model.ModeSearch
		m.SearchInput.SetValue(e.Filter())
		m.SearchInput.CursorEnd()
		return m, tea.Batch(m.SearchInput.Focus(), textinput.Blink)

	case key.Matches(keyMsg, m.Keys.Reveal):
		if e.Filter() == "" {
			return m, nil
		}
		if row, ok := e.Selected(); ok && e.Reveal(row.Node) {
			m.SearchInput.Reset()
		}

	case key.Matches(keyMsg, m.Keys.Copy):
		return copySelected(m)
	}

	return m, nil
}

func handleKeyMsgSearchMode(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch keyMsg.Type {
	case tea.KeyEsc:
		m.Engine.SetFilter("")
		m.SearchInput.Reset()
		m.SearchInput.Blur()
		m.CurrentAppMode = model.ModeBrowse
		return m, nil
	case tea.KeyEnter:
		m.SearchInput.Blur()
		m.CurrentAppMode = model.ModeBrowse
		return m, nil
	case tea.KeyUp:
		m.Engine.MoveSelection(-1)
		return m, nil
	case tea.KeyDown:
		m.Engine.MoveSelection(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(keyMsg)
	m.Engine.SetFilter(m.SearchInput.Value())
	return m, cmd
}

func handleKeyMsgOverlay(m *model.Model, keyMsg tea.KeyMsg) (*model.Model, tea.Cmd) {
	closeOverlay := func() (*model.Model, tea.Cmd) {
		m.CurrentAppMode = model.ModeBrowse
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.Keys.Esc):
		return closeOverlay()
	case key.Matches(keyMsg, m.Keys.Quit):
		return quit(m)
	}

	switch m.CurrentAppMode {
	case model.ModeHelpOverlay:
		if key.Matches(keyMsg, m.Keys.Help) {
			return closeOverlay()
		}

	case model.ModeLogOverlay:
		switch {
		case key.Matches(keyMsg, m.Keys.ToggleLog):
			return closeOverlay()
		case key.Matches(keyMsg, m.Keys.Copy):
			if err := clipboardWriteAll(strings.Join(m.ActivityLog, "\n")); err != nil {
				LogError(controllerSubsystem, err, "Failed to copy logs")
				return m, m.SetStatusMessage("Copy logs failed", model.StatusBarError, model.DefaultStatusDuration)
			}
			return m, m.SetStatusMessage("Logs copied to clipboard", model.StatusBarSuccess, model.DefaultStatusDuration)
		default:
			var cmd tea.Cmd
			m.LogViewport, cmd = m.LogViewport.Update(keyMsg)
			return m, cmd
		}

	case model.ModeDetailOverlay:
		switch {
		case key.Matches(keyMsg, m.Keys.Toggle):
			return closeOverlay()
		case key.Matches(keyMsg, m.Keys.Copy):
			return copySelected(m)
		default:
			var cmd tea.Cmd
			m.DetailViewport, cmd = m.DetailViewport.Update(keyMsg)
			return m, cmd
		}
	}
	return m, nil
}

// copySelected puts the selected row's full name on the clipboard.
func copySelected(m *model.Model) (*model.Model, tea.Cmd) {
	row, ok := m.Engine.Selected()
	if !ok {
		return m, nil
	}
	text := row.Path
	if row.Kind == catalog.KindMetadata && row.Metadata != nil {
		text = row.Metadata.Key + "=" + row.Metadata.Value
	}
	if text == "" {
		return m, nil
	}

	if err := clipboardWriteAll(text); err != nil {
		LogError(controllerSubsystem, err, "Failed to copy %s", text)
		return m, m.SetStatusMessage("Copy to clipboard failed", model.StatusBarError, model.DefaultStatusDuration)
	}
	return m, m.SetStatusMessage(fmt.Sprintf("Copied %s", text), model.StatusBarSuccess, model.DefaultStatusDuration)
}
