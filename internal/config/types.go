package config

// Config is the top-level configuration structure for tensorscope.
type Config struct {
	Explorer ExplorerConfig `yaml:"explorer"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ExplorerConfig controls how files are found and loaded.
// Pointer fields distinguish "not set in this layer" from false/zero.
type ExplorerConfig struct {
	// Recursive scans directory arguments recursively.
	Recursive *bool `yaml:"recursive,omitempty"`
	// FailurePolicy is "strict" or "best-effort".
	FailurePolicy string `yaml:"failurePolicy,omitempty"`
	// RequireAllShards fails when an index file references a missing shard.
	RequireAllShards *bool `yaml:"requireAllShards,omitempty"`
	// ShowMetadata adds the metadata group to the tree.
	ShowMetadata *bool `yaml:"showMetadata,omitempty"`
	// ExpandDepth is how many levels are open when the browser starts.
	ExpandDepth *int `yaml:"expandDepth,omitempty"`
	// Concurrency bounds parallel header reads.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// UIConfig controls the interactive browser.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme       string `yaml:"theme,omitempty"`
	IndentWidth int    `yaml:"indentWidth,omitempty"`
	ShowIcons   *bool  `yaml:"showIcons,omitempty"`
	// DetailPanel shows the side panel for the selected tensor on wide
	// terminals.
	DetailPanel *bool `yaml:"detailPanel,omitempty"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Theme values.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Failure policy values.
const (
	PolicyStrict     = "strict"
	PolicyBestEffort = "best-effort"
)

// BoolValue dereferences an optional bool.
func BoolValue(b *bool) bool {
	return b != nil && *b
}

// IntValue dereferences an optional int.
func IntValue(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// Bool returns a pointer to b, for building configs in code.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}
