package app

import (
	"io"
	"os"

	"tensorscope/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Paths are the files, directories, globs or index files to open.
	Paths []string

	// ConfigPath loads a single config file instead of the layered lookup.
	ConfigPath string

	// Debug settings
	Debug bool

	// Overrides from the command line. Nil (or false) keeps the value from
	// the config files.
	Recursive   *bool
	BestEffort  bool
	ExpandDepth *int
	NoMetadata  bool

	// List prints the tree instead of starting the browser. ListDepth is the
	// number of expanded levels; a negative value expands everything.
	List      bool
	ListDepth int

	// Output receives list mode output.
	Output io.Writer

	// LogOutput receives CLI log records.
	LogOutput io.Writer

	// Settings is the merged file configuration, filled in by NewApplication.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(paths []string, debug bool) *Config {
	return &Config{
		Paths:     paths,
		Debug:     debug,
		ListDepth: -1,
		Output:    os.Stdout,
		LogOutput: os.Stderr,
	}
}

// applyOverrides folds the command line overrides into the file settings.
func (c *Config) applyOverrides(settings *config.Config) {
	if c.Recursive != nil {
		settings.Explorer.Recursive = config.Bool(*c.Recursive)
	}
	if c.BestEffort {
		settings.Explorer.FailurePolicy = config.PolicyBestEffort
	}
	if c.ExpandDepth != nil {
		settings.Explorer.ExpandDepth = config.Int(*c.ExpandDepth)
	}
	if c.NoMetadata {
		settings.Explorer.ShowMetadata = config.Bool(false)
	}
	if c.Debug {
		settings.Logging.Level = "debug"
	}
}
