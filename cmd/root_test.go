package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tensorscope/internal/formats/formatstest"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	assert.Equal(t, testVersion, rootCmd.Version)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "tensorscope", rootCmd.Name())
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	for _, name := range []string{"config", "debug", "recursive", "best-effort", "no-metadata"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "persistent flag %s", name)
	}
	assert.NotNil(t, rootCmd.Flags().Lookup("expand-depth"))
	assert.Equal(t, "r", rootCmd.PersistentFlags().Lookup("recursive").Shorthand)
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "tensorscope version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})

	require.NoError(t, testCmd.Execute())
	assert.Equal(t, "tensorscope version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}

	for _, expected := range []string{"list", "version"} {
		assert.True(t, found[expected], "expected subcommand %s to be registered", expected)
	}
}

func TestNewAppConfig(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		flags         map[string]string
		wantPaths     []string
		wantRecursive *bool
		wantBest      bool
	}{
		{
			name:      "defaults to the current directory",
			wantPaths: []string{"."},
		},
		{
			name:      "recursive given",
			args:      []string{"models"},
			flags:     map[string]string{"recursive": "true"},
			wantPaths: []string{"models"},
		},
		{
			name:      "recursive explicitly off",
			args:      []string{"a.gguf", "b.gguf"},
			flags:     map[string]string{"recursive": "false", "best-effort": "true"},
			wantPaths: []string{"a.gguf", "b.gguf"},
			wantBest:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recursive, bestEffort = false, false
			t.Cleanup(func() { recursive, bestEffort = false, false })

			c := &cobra.Command{Use: "test"}
			c.Flags().BoolVarP(&recursive, "recursive", "r", false, "")
			c.Flags().BoolVar(&bestEffort, "best-effort", false, "")
			for name, value := range tt.flags {
				require.NoError(t, c.Flags().Set(name, value))
			}

			cfg := newAppConfig(c, tt.args)
			assert.Equal(t, tt.wantPaths, cfg.Paths)
			assert.Equal(t, tt.wantBest, cfg.BestEffort)

			if v, ok := tt.flags["recursive"]; ok {
				require.NotNil(t, cfg.Recursive)
				assert.Equal(t, v == "true", *cfg.Recursive)
			} else {
				assert.Nil(t, cfg.Recursive, "unset flag must not override the config file")
			}
		})
	}
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	model := formatstest.WriteSafetensors(t, dir, "model.safetensors", []formatstest.SafeTensor{
		{Name: "embed.weight", DType: "F32", Shape: []uint64{2, 3}, Bytes: 24},
	}, nil)
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("ui:\n  indentWidth: 2\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"list", "--config", configFile, model})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configPath = ""
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "▼ embed (1 tensor, 24 B)")
	assert.Contains(t, out, "    weight [F32, (2, 3), 24 B]")
	assert.Contains(t, out, "1 tensor, 6 parameters, 24 B")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("0.4.0")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "tensorscope version 0.4.0\n", buf.String())
}
