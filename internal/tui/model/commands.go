package model

import (
	"tensorscope/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenForLogEntriesCmd waits for the next log record. It returns nil once
// the channel is closed, which ends the listen loop.
func ListenForLogEntriesCmd(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return NewLogEntryMsg{Entry: entry}
	}
}
