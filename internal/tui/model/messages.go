package model

import "tensorscope/pkg/logging"

// NewLogEntryMsg carries one log record from pkg/logging into the update
// loop.
type NewLogEntryMsg struct {
	Entry logging.LogEntry
}

// ClearStatusBarMsg clears a transient status bar message.
type ClearStatusBarMsg struct{}

