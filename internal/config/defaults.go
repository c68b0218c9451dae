package config

// GetDefaultConfig returns the built-in defaults: strict loading, metadata
// shown, top-level groups open, auto theme.
func GetDefaultConfig() Config {
	return Config{
		Explorer: ExplorerConfig{
			Recursive:        Bool(false),
			FailurePolicy:    PolicyStrict,
			RequireAllShards: Bool(false),
			ShowMetadata:     Bool(true),
			ExpandDepth:      Int(1),
			Concurrency:      4,
		},
		UI: UIConfig{
			Theme:       ThemeAuto,
			IndentWidth: 2,
			ShowIcons:   Bool(true),
			DetailPanel: Bool(true),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
