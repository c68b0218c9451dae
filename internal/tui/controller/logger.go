package controller

import (
	"tensorscope/internal/tui/model"
	"tensorscope/pkg/logging"
)

const controllerSubsystem = "Controller"

// LogDebug logs a debug-level message when the browser runs in debug mode.
func LogDebug(m *model.Model, subsystem string, format string, a ...interface{}) {
	if m != nil && m.DebugMode {
		logging.Debug(subsystem, format, a...)
	}
}

// LogError logs an error message.
func LogError(subsystem string, err error, format string, a ...interface{}) {
	logging.Error(subsystem, err, format, a...)
}
