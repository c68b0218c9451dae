package app

import (
	"context"
	"fmt"

	"tensorscope/internal/config"
	"tensorscope/internal/navigation"
	"tensorscope/internal/tui/controller"
	"tensorscope/internal/tui/design"
	"tensorscope/internal/tui/model"
	"tensorscope/internal/tui/utils"
	"tensorscope/internal/tui/view"
	"tensorscope/pkg/logging"
)

// runListMode prints the tree, expanded to cfg.ListDepth, without starting
// the browser.
func runListMode(cfg *Config, session *Session) error {
	engine := navigation.New(session.Catalog, 1)
	if cfg.ListDepth < 0 {
		engine.ExpandAll()
	} else {
		engine.ExpandToDepth(cfg.ListDepth)
	}

	opts := view.RowOptions{IndentWidth: cfg.Settings.UI.IndentWidth}
	for _, row := range engine.CurrentFlatView() {
		if _, err := fmt.Fprintln(cfg.Output, view.RowText(row, opts)); err != nil {
			return fmt.Errorf("failed to write listing: %w", err)
		}
	}

	cat := session.Catalog
	_, err := fmt.Fprintf(cfg.Output, "\n%s, %s parameters, %s\n",
		utils.Plural(cat.TensorCount(), "tensor"),
		utils.FormatParameters(cat.Parameters()),
		utils.FormatSize(cat.TotalBytes()))
	if err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	return nil
}

// runTUIMode executes the interactive terminal UI mode
func runTUIMode(ctx context.Context, cfg *Config, session *Session) error {
	settings := cfg.Settings
	logging.Debug("TUI-Lifecycle", "Starting TUI mode...")

	design.Initialize(settings.UI.Theme)

	// Switch logging to channel-based system for TUI integration
	logLevel, err := logging.ParseLevel(settings.Logging.Level)
	if err != nil {
		return err
	}
	logChan := logging.InitForTUI(logLevel)
	defer logging.CloseTUIChannel()

	p := controller.NewProgram(ctx, session.Catalog, model.TUIConfig{
		DebugMode:   cfg.Debug,
		Title:       session.Title,
		Sources:     session.Sources,
		Report:      session.Report,
		ExpandDepth: config.IntValue(settings.Explorer.ExpandDepth),
		IndentWidth: settings.UI.IndentWidth,
		ShowIcons:   config.BoolValue(settings.UI.ShowIcons),
		DetailPanel: config.BoolValue(settings.UI.DetailPanel),
	}, logChan)

	// Run the TUI until user exits
	if _, err := p.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logging.Debug("TUI-Lifecycle", "TUI program failed")
		return err
	}
	logging.Debug("TUI-Lifecycle", "TUI exited.")

	return nil
}
