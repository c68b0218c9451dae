package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tensorscope/internal/config"
	"tensorscope/internal/formats"
	"tensorscope/internal/formats/formatstest"
	"tensorscope/internal/loader"
	"tensorscope/internal/source"
	"tensorscope/internal/tui/model"
)

func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	return formatstest.WriteSafetensors(t, dir, name, []formatstest.SafeTensor{
		{Name: "embed.weight", DType: "F32", Shape: []uint64{2, 3}, Bytes: 24},
		{Name: "layers.0.attn.weight", DType: "F16", Shape: []uint64{4}, Bytes: 8},
	}, map[string]string{"format": "pt"})
}

func writeBroken(t *testing.T, dir, name string) string {
	t.Helper()
	return formatstest.WriteFile(t, dir, name, []byte("GGUF\x09\x00\x00\x00"))
}

func TestOpenSession(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "model.safetensors")

	session, err := OpenSession(context.Background(), []string{path}, config.GetDefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "model.safetensors", session.Title)
	require.Len(t, session.Sources, 1)
	assert.Equal(t, 2, session.Catalog.TensorCount())
	assert.EqualValues(t, 32, session.Catalog.TotalBytes())
	assert.NotNil(t, session.Catalog.Metadata)
	assert.Equal(t, 1, session.Report.Loaded)
}

func TestOpenSession_WithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "model.safetensors")

	settings := config.GetDefaultConfig()
	settings.Explorer.ShowMetadata = config.Bool(false)

	session, err := OpenSession(context.Background(), []string{path}, settings)
	require.NoError(t, err)
	assert.Nil(t, session.Catalog.Metadata)
}

func TestOpenSession_FailurePolicy(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "a.safetensors")
	writeBroken(t, dir, "b.gguf")

	t.Run("strict", func(t *testing.T) {
		_, err := OpenSession(context.Background(), []string{dir}, config.GetDefaultConfig())
		var fe *formats.FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, filepath.Join(dir, "b.gguf"), fe.Path)
	})

	t.Run("best effort", func(t *testing.T) {
		settings := config.GetDefaultConfig()
		settings.Explorer.FailurePolicy = config.PolicyBestEffort

		session, err := OpenSession(context.Background(), []string{dir}, settings)
		require.NoError(t, err)
		assert.Equal(t, 2, session.Catalog.TensorCount())
		assert.Len(t, session.Report.Skipped, 1)
		assert.Equal(t, filepath.Base(dir), session.Title)
	})

	t.Run("everything broken", func(t *testing.T) {
		settings := config.GetDefaultConfig()
		settings.Explorer.FailurePolicy = config.PolicyBestEffort
		broken := writeBroken(t, t.TempDir(), "c.gguf")

		_, err := OpenSession(context.Background(), []string{broken}, settings)
		assert.ErrorIs(t, err, loader.ErrNoReadableSources)
	})
}

func TestOpenSession_NothingToOpen(t *testing.T) {
	_, err := OpenSession(context.Background(), []string{filepath.Join(t.TempDir(), "*.gguf")}, config.GetDefaultConfig())

	var re *source.ResolutionError
	assert.True(t, errors.As(err, &re))
}

func TestSessionTitle(t *testing.T) {
	index := &source.Manifest{Path: "/models/llama/model.safetensors.index.json"}
	other := &source.Manifest{Path: "/models/other/model.safetensors.index.json"}

	tests := []struct {
		name     string
		paths    []string
		sources  []source.Source
		expected string
	}{
		{
			name:     "single file",
			paths:    []string{"/models"},
			sources:  []source.Source{{Path: "/models/tiny.gguf"}},
			expected: "tiny.gguf",
		},
		{
			name:  "sharded checkpoint",
			paths: []string{"/models/llama/model.safetensors.index.json"},
			sources: []source.Source{
				{Path: "/models/llama/model-00001-of-00002.safetensors", Manifest: index},
				{Path: "/models/llama/model-00002-of-00002.safetensors", Manifest: index},
			},
			expected: "llama",
		},
		{
			name:  "one directory",
			paths: []string{"/models/"},
			sources: []source.Source{
				{Path: "/models/llama/model-00001-of-00002.safetensors", Manifest: index},
				{Path: "/models/other/model-00001-of-00001.safetensors", Manifest: other},
			},
			expected: "models",
		},
		{
			name:  "several arguments",
			paths: []string{"/a.gguf", "/b.gguf", "/c.gguf"},
			sources: []source.Source{
				{Path: "/a.gguf"}, {Path: "/b.gguf"}, {Path: "/c.gguf"},
			},
			expected: "3 files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sessionTitle(tt.paths, tt.sources))
		})
	}
}

func TestOpenSession_SkippedFilesReachActivityLog(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "a.safetensors")
	broken := writeBroken(t, dir, "b.gguf")

	settings := config.GetDefaultConfig()
	settings.Explorer.FailurePolicy = config.PolicyBestEffort

	session, err := OpenSession(context.Background(), []string{dir}, settings)
	require.NoError(t, err)

	m := model.InitializeModel(session.Catalog, model.TUIConfig{Sources: session.Sources, Report: session.Report}, nil)
	require.Len(t, m.ActivityLog, 1)
	assert.Contains(t, m.ActivityLog[0], "skipped "+broken)
}
