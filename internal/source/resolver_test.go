package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tensorscope/internal/formats/formatstest"
	"tensorscope/internal/tensor"
)

func writeST(t *testing.T, dir, name string) string {
	t.Helper()
	return formatstest.WriteSafetensors(t, dir, name, []formatstest.SafeTensor{
		{Name: "w", DType: "F32", Shape: []uint64{1}, Bytes: 4},
	}, nil)
}

func writeGGUF(t *testing.T, dir, name string) string {
	t.Helper()
	return formatstest.WriteGGUF(t, dir, name, nil, nil, 0)
}

func sourcePaths(sources []Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.Path)
	}
	return out
}

func TestResolve_ExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	b := writeST(t, dir, "b.safetensors")
	a := writeGGUF(t, dir, "a.gguf")

	sources, err := Resolve([]string{b, a, b}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, sourcePaths(sources), "sorted and de-duplicated")
	assert.Equal(t, tensor.FormatGGUF, sources[0].Format)
	assert.Equal(t, tensor.FormatSafetensors, sources[1].Format)
}

func TestResolve_SniffsFilesWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	path := formatstest.WriteFile(t, dir, "weights", formatstest.BuildGGUF(t, nil, nil, 0))
	formatstest.WriteFile(t, dir, "README", []byte("not a checkpoint"))

	sources, err := Resolve([]string{path, filepath.Join(dir, "README")}, Options{})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, tensor.FormatGGUF, sources[0].Format)
}

func TestResolve_Directory(t *testing.T) {
	dir := t.TempDir()
	top := writeST(t, dir, "model.safetensors")
	nested := writeGGUF(t, dir, "sub/deep/q4.gguf")
	formatstest.WriteFile(t, dir, "config.json", []byte("{}"))

	sources, err := Resolve([]string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{top}, sourcePaths(sources))

	sources, err = Resolve([]string{dir}, Options{Recursive: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{top, nested}, sourcePaths(sources))
}

func TestResolve_Glob(t *testing.T) {
	dir := t.TempDir()
	one := writeST(t, dir, "model-00001.safetensors")
	two := writeST(t, dir, "model-00002.safetensors")
	writeGGUF(t, dir, "other.gguf")
	deep := writeST(t, dir, "x/y/model-00003.safetensors")

	sources, err := Resolve([]string{filepath.Join(dir, "model-*.safetensors")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{one, two}, sourcePaths(sources))

	sources, err = Resolve([]string{filepath.Join(dir, "**", "model-*.safetensors")}, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{one, two, deep}, sourcePaths(sources))
}

func TestResolve_IndexManifest(t *testing.T) {
	dir := t.TempDir()
	s1 := writeST(t, dir, "model-00001-of-00002.safetensors")
	s2 := writeST(t, dir, "model-00002-of-00002.safetensors")
	writeST(t, dir, "unrelated.safetensors")
	index := formatstest.WriteFile(t, dir, IndexFileName, []byte(`{
		"metadata": {"total_size": 8},
		"weight_map": {
			"embed.weight": "model-00001-of-00002.safetensors",
			"head.weight": "model-00002-of-00002.safetensors",
			"norm.weight": "model-00002-of-00002.safetensors"
		}
	}`))

	for _, arg := range []string{dir, index} {
		t.Run(filepath.Base(arg), func(t *testing.T) {
			sources, err := Resolve([]string{arg}, Options{})
			require.NoError(t, err)
			assert.Equal(t, []string{s1, s2}, sourcePaths(sources), "only referenced shards")

			m := sources[0].Manifest
			require.NotNil(t, m)
			assert.Same(t, m, sources[1].Manifest)
			assert.Equal(t, uint64(8), m.TotalSize)

			shard, ok := m.ShardFor("head.weight")
			require.True(t, ok)
			assert.Equal(t, s2, shard)
			_, ok = m.ShardFor("missing")
			assert.False(t, ok)
		})
	}
}

func TestResolve_IndexMissingShard(t *testing.T) {
	dir := t.TempDir()
	s1 := writeST(t, dir, "a.safetensors")
	formatstest.WriteFile(t, dir, IndexFileName, []byte(`{"weight_map": {"x": "a.safetensors", "y": "b.safetensors"}}`))

	sources, err := Resolve([]string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{s1}, sourcePaths(sources))

	_, err = Resolve([]string{dir}, Options{RequireAllShards: true})
	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), "b.safetensors")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	formatstest.WriteFile(t, dir, "notes.txt", []byte("hello"))
	badIndex := formatstest.WriteFile(t, dir, "broken/"+IndexFileName, []byte("{"))

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"missing path", []string{filepath.Join(dir, "nope.safetensors")}},
		{"glob without matches", []string{filepath.Join(dir, "*.gguf")}},
		{"only unsupported files", []string{filepath.Join(dir, "notes.txt")}},
		{"empty directory", []string{t.TempDir()}},
		{"broken index", []string{badIndex}},
		{"bad pattern", []string{filepath.Join(dir, "[")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.args, Options{})
			var re *ResolutionError
			require.True(t, errors.As(err, &re), "got %v", err)
		})
	}
}

func TestManifest_Load(t *testing.T) {
	dir := t.TempDir()
	empty := formatstest.WriteFile(t, dir, "empty.index.json", []byte(`{"weight_map": {}}`))
	_, err := LoadManifest(empty)
	assert.Error(t, err)

	assert.True(t, IsManifest("/x/model.safetensors.index.json"))
	assert.True(t, IsManifest("diffusion_pytorch_model.safetensors.INDEX.json"))
	assert.False(t, IsManifest("config.json"))
}
