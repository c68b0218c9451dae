package app

import (
	"context"
	"fmt"
	"os"

	"tensorscope/internal/config"
	"tensorscope/pkg/logging"
)

// Application is the main application structure that bootstraps and runs
// tensorscope.
type Application struct {
	config *Config
}

// NewApplication loads the configuration and prepares logging. Files are
// not opened until Run.
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	if cfg.LogOutput == nil {
		cfg.LogOutput = os.Stderr
	}

	// Initialize logging for CLI output (will be replaced for TUI mode)
	logging.InitForCLI(appLogLevel, cfg.LogOutput)

	var settings config.Config
	var err error

	if cfg.ConfigPath != "" {
		settings, err = config.LoadConfigFromPath(cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
		}
		logging.Debug("Bootstrap", "Loaded configuration from custom path: %s", cfg.ConfigPath)
	} else {
		settings, err = config.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		logging.Debug("Bootstrap", "Loaded configuration using layered approach")
	}

	cfg.applyOverrides(&settings)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(settings.Logging.Level)
	if err != nil {
		return nil, err
	}
	logging.InitForCLI(level, cfg.LogOutput)

	cfg.Settings = &settings
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	return &Application{config: cfg}, nil
}

// Run opens the configured paths and then runs the browser or list mode.
func (a *Application) Run(ctx context.Context) error {
	session, err := OpenSession(ctx, a.config.Paths, *a.config.Settings)
	if err != nil {
		// The caller reports err; logging it here would print it twice.
		logging.Debug("Bootstrap", "Failed to open %s", describePaths(a.config.Paths))
		return err
	}

	if a.config.List {
		return runListMode(a.config, session)
	}
	return runTUIMode(ctx, a.config, session)
}

func describePaths(paths []string) string {
	switch len(paths) {
	case 0:
		return "the current directory"
	case 1:
		return paths[0]
	default:
		return fmt.Sprintf("%d paths", len(paths))
	}
}
