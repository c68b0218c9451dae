package controller

import (
	"context"

	"tensorscope/internal/catalog"
	"tensorscope/internal/tui/model"
	"tensorscope/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the Bubble Tea program for browsing cat. Cancelling ctx
// stops the program.
func NewProgram(ctx context.Context, cat *catalog.Catalog, cfg model.TUIConfig, logChannel <-chan logging.LogEntry) *tea.Program {
	m := model.InitializeModel(cat, cfg, logChannel)
	return tea.NewProgram(NewAppModel(m), tea.WithAltScreen(), tea.WithContext(ctx))
}
