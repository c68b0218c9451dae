package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/tensorscope"
	projectConfigDir = ".tensorscope"
	configFileName   = "config.yaml"
)

// LoadConfig loads the configuration by layering default, user, and project
// settings.
func LoadConfig() (Config, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional.
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else if config, err = layerIfExists(config, userConfigPath); err != nil {
		return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else if config, err = layerIfExists(config, projectConfigPath); err != nil {
		return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadConfigFromPath layers a single explicit file over the defaults. User
// and project files are ignored.
func LoadConfigFromPath(path string) (Config, error) {
	fileConfig, err := loadConfigFromFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	config := mergeConfigs(GetDefaultConfig(), fileConfig)
	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func layerIfExists(base Config, path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	overlay, err := loadConfigFromFile(path)
	if err != nil {
		return base, err
	}
	return mergeConfigs(base, overlay), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	//nolint:gosec // G304: config paths come from fixed locations or the --config flag.
	f, err := os.Open(filePath)
	if err != nil {
		return Config{}, err
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Only fields set
// in the overlay override.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.Explorer.Recursive != nil {
		merged.Explorer.Recursive = overlay.Explorer.Recursive
	}
	if overlay.Explorer.FailurePolicy != "" {
		merged.Explorer.FailurePolicy = overlay.Explorer.FailurePolicy
	}
	if overlay.Explorer.RequireAllShards != nil {
		merged.Explorer.RequireAllShards = overlay.Explorer.RequireAllShards
	}
	if overlay.Explorer.ShowMetadata != nil {
		merged.Explorer.ShowMetadata = overlay.Explorer.ShowMetadata
	}
	if overlay.Explorer.ExpandDepth != nil {
		merged.Explorer.ExpandDepth = overlay.Explorer.ExpandDepth
	}
	if overlay.Explorer.Concurrency != 0 {
		merged.Explorer.Concurrency = overlay.Explorer.Concurrency
	}

	if overlay.UI.Theme != "" {
		merged.UI.Theme = overlay.UI.Theme
	}
	if overlay.UI.IndentWidth != 0 {
		merged.UI.IndentWidth = overlay.UI.IndentWidth
	}
	if overlay.UI.ShowIcons != nil {
		merged.UI.ShowIcons = overlay.UI.ShowIcons
	}
	if overlay.UI.DetailPanel != nil {
		merged.UI.DetailPanel = overlay.UI.DetailPanel
	}

	if overlay.Logging.Level != "" {
		merged.Logging.Level = overlay.Logging.Level
	}

	return merged
}

// Validate rejects values the rest of the program cannot interpret.
func (c Config) Validate() error {
	switch strings.ToLower(c.Explorer.FailurePolicy) {
	case PolicyStrict, PolicyBestEffort:
	default:
		return fmt.Errorf("explorer.failurePolicy: unknown value %q (expected %s or %s)", c.Explorer.FailurePolicy, PolicyStrict, PolicyBestEffort)
	}
	if c.Explorer.Concurrency < 0 {
		return fmt.Errorf("explorer.concurrency must not be negative, got %d", c.Explorer.Concurrency)
	}
	if IntValue(c.Explorer.ExpandDepth) < 0 {
		return fmt.Errorf("explorer.expandDepth must not be negative, got %d", IntValue(c.Explorer.ExpandDepth))
	}

	switch strings.ToLower(c.UI.Theme) {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("ui.theme: unknown value %q (expected auto, dark or light)", c.UI.Theme)
	}
	if c.UI.IndentWidth < 0 || c.UI.IndentWidth > 8 {
		return fmt.Errorf("ui.indentWidth must be between 0 and 8, got %d", c.UI.IndentWidth)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown value %q", c.Logging.Level)
	}
	return nil
}
