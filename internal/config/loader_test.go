package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockConfigPaths points the user and project config lookups into dir.
func mockConfigPaths(t *testing.T, dir string) (userPath, projectPath string) {
	t.Helper()

	originalGetUserConfigPath := getUserConfigPath
	originalGetProjectConfigPath := getProjectConfigPath
	t.Cleanup(func() {
		getUserConfigPath = originalGetUserConfigPath
		getProjectConfigPath = originalGetProjectConfigPath
	})

	userPath = filepath.Join(dir, userConfigDir, configFileName)
	projectPath = filepath.Join(dir, "project", projectConfigDir, configFileName)
	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }
	return userPath, projectPath
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	mockConfigPaths(t, t.TempDir())

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
	assert.Equal(t, PolicyStrict, loaded.Explorer.FailurePolicy)
	assert.True(t, BoolValue(loaded.Explorer.ShowMetadata))
	assert.Equal(t, 1, IntValue(loaded.Explorer.ExpandDepth))
}

func TestLoadConfig_UserAndProjectLayers(t *testing.T) {
	userPath, projectPath := mockConfigPaths(t, t.TempDir())

	writeConfig(t, userPath, `
explorer:
  recursive: true
  failurePolicy: best-effort
ui:
  theme: dark
  showIcons: false
`)
	writeConfig(t, projectPath, `
explorer:
  failurePolicy: strict
  expandDepth: 0
logging:
  level: debug
`)

	loaded, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, BoolValue(loaded.Explorer.Recursive), "user layer")
	assert.Equal(t, PolicyStrict, loaded.Explorer.FailurePolicy, "project overrides user")
	assert.Equal(t, 0, IntValue(loaded.Explorer.ExpandDepth), "explicit zero survives the merge")
	assert.Equal(t, ThemeDark, loaded.UI.Theme)
	assert.False(t, BoolValue(loaded.UI.ShowIcons))
	assert.True(t, BoolValue(loaded.UI.DetailPanel), "default kept")
	assert.Equal(t, "debug", loaded.Logging.Level)
	assert.Equal(t, 4, loaded.Explorer.Concurrency)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "explorer: [unclosed"},
		{"unknown key", "explorer:\n  recursve: true\n"},
		{"bad policy", "explorer:\n  failurePolicy: sometimes\n"},
		{"bad theme", "ui:\n  theme: neon\n"},
		{"bad level", "logging:\n  level: chatty\n"},
		{"negative depth", "explorer:\n  expandDepth: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userPath, _ := mockConfigPaths(t, t.TempDir())
			writeConfig(t, userPath, tt.content)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	_, projectPath := mockConfigPaths(t, t.TempDir())
	writeConfig(t, projectPath, "")

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), loaded)
}

func TestLoadConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	userPath, _ := mockConfigPaths(t, dir)
	writeConfig(t, userPath, "ui:\n  theme: light\n")

	explicit := filepath.Join(dir, "custom.yaml")
	writeConfig(t, explicit, "explorer:\n  concurrency: 8\n")

	loaded, err := LoadConfigFromPath(explicit)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Explorer.Concurrency)
	assert.Equal(t, ThemeAuto, loaded.UI.Theme, "user config is not consulted")

	_, err = LoadConfigFromPath(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMergeConfigs(t *testing.T) {
	base := GetDefaultConfig()

	merged := mergeConfigs(base, Config{})
	assert.Equal(t, base, merged, "empty overlay changes nothing")

	merged = mergeConfigs(base, Config{
		Explorer: ExplorerConfig{ShowMetadata: Bool(false), Concurrency: 2},
		UI:       UIConfig{IndentWidth: 4, DetailPanel: Bool(false)},
	})
	assert.False(t, BoolValue(merged.Explorer.ShowMetadata))
	assert.Equal(t, 2, merged.Explorer.Concurrency)
	assert.Equal(t, 4, merged.UI.IndentWidth)
	assert.False(t, BoolValue(merged.UI.DetailPanel))
	assert.Equal(t, base.Logging, merged.Logging)
}

func TestGetUserConfigPath(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()
	osUserHomeDir = func() (string, error) { return "/home/alice", nil }

	p, err := getUserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/alice", ".config", "tensorscope", "config.yaml"), p)
}
