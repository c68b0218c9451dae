package loader

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tensorscope/internal/catalog"
	"tensorscope/internal/formats"
	"tensorscope/internal/formats/formatstest"
	"tensorscope/internal/source"
	"tensorscope/internal/tensor"
)

func stSource(t *testing.T, dir, name string, tensors ...formatstest.SafeTensor) source.Source {
	t.Helper()
	path := formatstest.WriteSafetensors(t, dir, name, tensors, map[string]string{"format": "pt"})
	return source.Source{Path: path, Format: tensor.FormatSafetensors}
}

func brokenSource(t *testing.T, dir, name string) source.Source {
	t.Helper()
	path := formatstest.WriteFile(t, dir, name, []byte("GGUF\x09\x00\x00\x00"))
	return source.Source{Path: path, Format: tensor.FormatGGUF}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in       string
		expected Policy
		wantErr  bool
	}{
		{"", PolicyStrict, false},
		{"strict", PolicyStrict, false},
		{"Best-Effort", PolicyBestEffort, false},
		{"best_effort", PolicyBestEffort, false},
		{"lenient", PolicyStrict, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
	assert.Equal(t, "best-effort", PolicyBestEffort.String())
	assert.Equal(t, "strict", PolicyStrict.String())
}

func TestLoad_MergesSourcesInOrder(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{
		stSource(t, dir, "a.safetensors",
			formatstest.SafeTensor{Name: "block.0.weight", DType: "U8", Shape: []uint64{512}, Bytes: 512},
			formatstest.SafeTensor{Name: "block.0.bias", DType: "U8", Shape: []uint64{64}, Bytes: 64},
		),
		stSource(t, dir, "b.safetensors",
			formatstest.SafeTensor{Name: "block.1.weight", DType: "U8", Shape: []uint64{512}, Bytes: 512},
		),
	}

	cat, report, err := Load(context.Background(), sources, Options{Concurrency: 1, IncludeMetadata: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Loaded)
	assert.Empty(t, report.Skipped)

	block := cat.Find("block")
	require.NotNil(t, block)
	assert.Equal(t, 3, block.TensorCount())
	assert.Equal(t, uint64(1088), block.TotalBytes())
	assert.Equal(t, 1, cat.Find("block.1.weight").Record().SourceIndex)

	require.NotNil(t, cat.Metadata)
	assert.Equal(t, 1, cat.Metadata.Len(), "identical metadata is kept once")
}

func TestLoad_WithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{
		stSource(t, dir, "a.safetensors", formatstest.SafeTensor{Name: "w", DType: "F32", Shape: []uint64{1}, Bytes: 4}),
	}

	cat, _, err := Load(context.Background(), sources, Options{})
	require.NoError(t, err)
	assert.Nil(t, cat.Metadata)
}

func TestLoad_CrossFileConflict(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{
		stSource(t, dir, "a.safetensors", formatstest.SafeTensor{Name: "a.b", DType: "F32", Shape: []uint64{1}, Bytes: 4}),
		stSource(t, dir, "b.safetensors", formatstest.SafeTensor{Name: "a.b.c", DType: "F32", Shape: []uint64{1}, Bytes: 4}),
	}

	_, _, err := Load(context.Background(), sources, Options{Policy: PolicyBestEffort})
	require.Error(t, err)

	var conflict *catalog.NameConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, catalog.ConflictLeafIsGroupPath, conflict.Kind)
	assert.Equal(t, sources[0].Path, conflict.ExistingFile)
	assert.Equal(t, sources[1].Path, conflict.IncomingFile)
	assert.Contains(t, err.Error(), "a.safetensors")
}

func TestLoad_StrictPolicyAborts(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{
		stSource(t, dir, "good.safetensors", formatstest.SafeTensor{Name: "w", DType: "F32", Shape: []uint64{1}, Bytes: 4}),
		brokenSource(t, dir, "bad.gguf"),
	}

	_, _, err := Load(context.Background(), sources, Options{Policy: PolicyStrict})
	require.Error(t, err)

	var fe *formats.FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, sources[1].Path, fe.Path)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestLoad_BestEffortSkips(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{
		brokenSource(t, dir, "bad.gguf"),
		stSource(t, dir, "good.safetensors", formatstest.SafeTensor{Name: "w", DType: "F32", Shape: []uint64{1}, Bytes: 4}),
	}

	cat, report, err := Load(context.Background(), sources, Options{Policy: PolicyBestEffort})
	require.NoError(t, err)
	assert.Equal(t, 1, cat.TensorCount())
	assert.Equal(t, 1, report.Loaded)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, sources[0].Path, report.Skipped[0].Path)
}

func TestLoad_AllSourcesFail(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{brokenSource(t, dir, "a.gguf"), brokenSource(t, dir, "b.gguf")}

	_, report, err := Load(context.Background(), sources, Options{Policy: PolicyBestEffort})
	assert.ErrorIs(t, err, ErrNoReadableSources)
	assert.Len(t, report.Skipped, 2)

	_, _, err = Load(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrNoReadableSources)
}

func TestLoad_UnknownFormat(t *testing.T) {
	sources := []source.Source{{Path: "x.bin", Format: tensor.FormatUnknown}}
	_, _, err := Load(context.Background(), sources, Options{})
	var fe *formats.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	sources := []source.Source{
		stSource(t, dir, "a.safetensors", formatstest.SafeTensor{Name: "w", DType: "F32", Shape: []uint64{1}, Bytes: 4}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Load(ctx, sources, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_ManifestMismatch(t *testing.T) {
	dir := t.TempDir()
	src := stSource(t, dir, "shard-1.safetensors",
		formatstest.SafeTensor{Name: "embed", DType: "F32", Shape: []uint64{1}, Bytes: 4},
		formatstest.SafeTensor{Name: "head", DType: "F32", Shape: []uint64{1}, Bytes: 4},
	)
	src.Manifest = &source.Manifest{
		Path: filepath.Join(dir, source.IndexFileName),
		WeightMap: map[string]string{
			"embed": "shard-1.safetensors",
			"head":  "shard-2.safetensors",
		},
	}

	_, report, err := Load(context.Background(), []source.Source{src}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ManifestMismatches)
}

func TestLoad_ManyFilesParallel(t *testing.T) {
	dir := t.TempDir()
	var sources []source.Source
	for i := 0; i < 12; i++ {
		name := string(rune('a'+i)) + ".safetensors"
		sources = append(sources, stSource(t, dir, name,
			formatstest.SafeTensor{Name: "layers." + string(rune('a'+i)) + ".w", DType: "F16", Shape: []uint64{2, 2}, Bytes: 8},
		))
	}

	cat, report, err := Load(context.Background(), sources, Options{Concurrency: 3})
	require.NoError(t, err)
	assert.Equal(t, 12, report.Loaded)
	assert.Equal(t, 12, cat.TensorCount())
	assert.Equal(t, uint64(96), cat.TotalBytes())
	assert.Equal(t, uint64(48), cat.Parameters())
	assert.Equal(t, 5, cat.Find("layers.f.w").Record().SourceIndex)
}
