package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tensorscope/internal/tensor"
)

func rec(name string, size uint64, source int) tensor.Record {
	return tensor.Record{
		Name:        name,
		DType:       tensor.DTypeU8,
		Shape:       []uint64{size},
		ByteSize:    size,
		SourceIndex: source,
	}
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}

func TestBuilder_EndToEndScenario(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert(rec("block.0.weight", 512, 0)))
	require.NoError(t, b.Insert(rec("block.1.weight", 512, 1)))
	require.NoError(t, b.Insert(rec("block.0.bias", 64, 0)))
	cat := b.Finalize()

	block := cat.Find("block")
	require.NotNil(t, block)
	assert.Equal(t, KindGroup, block.Kind())
	assert.Equal(t, 3, block.TensorCount())
	assert.Equal(t, uint64(1088), block.TotalBytes())

	children := block.Children()
	assert.Equal(t, []string{"0", "1"}, names(children))
	assert.Equal(t, 2, children[0].TensorCount())
	assert.Equal(t, uint64(576), children[0].TotalBytes())
	assert.Equal(t, "block.0", children[0].Path())
	assert.Equal(t, 1, children[1].TensorCount())
	assert.Equal(t, uint64(512), children[1].TotalBytes())

	assert.Equal(t, 3, cat.TensorCount())
	assert.Equal(t, uint64(1088), cat.TotalBytes())
	assert.Equal(t, uint64(1088), cat.Parameters())

	bias := cat.Find("block.0.bias")
	require.NotNil(t, bias)
	assert.Equal(t, KindTensor, bias.Kind())
	assert.Equal(t, uint64(64), bias.Record().ByteSize)
	assert.Nil(t, cat.Find("block.2"))
}

func TestBuilder_NaturalOrder(t *testing.T) {
	expected := []string{"0", "1", "2", "9", "10", "11"}

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		order := r.Perm(len(expected))
		b := NewBuilder()
		for _, idx := range order {
			require.NoError(t, b.Insert(rec("layer."+expected[idx], 1, 0)))
		}
		cat := b.Finalize()
		assert.Equal(t, expected, names(cat.Find("layer").Children()))
	}
}

func TestBuilder_AggregatesMatchLeaves(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	b := NewBuilder()
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		name := fmt.Sprintf("m.%d.%d.w%d", r.Intn(4), r.Intn(5), r.Intn(6))
		if seen[name] {
			continue
		}
		seen[name] = true
		require.NoError(t, b.Insert(rec(name, uint64(r.Intn(1000)), 0)))
	}
	cat := b.Finalize()

	var check func(n *Node) (int, uint64)
	check = func(n *Node) (int, uint64) {
		if n.Kind() == KindTensor {
			return 1, n.Record().ByteSize
		}
		count, bytes := 0, uint64(0)
		for _, c := range n.Children() {
			cc, cb := check(c)
			count += cc
			bytes += cb
		}
		assert.Equal(t, count, n.TensorCount(), n.Path())
		assert.Equal(t, bytes, n.TotalBytes(), n.Path())
		return count, bytes
	}
	count, _ := check(cat.Root)
	assert.Equal(t, len(seen), count)
}

func TestBuilder_Conflicts(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
		kind   ConflictKind
		path   string
	}{
		{"leaf then group", "a.b", "a.b.c", ConflictLeafIsGroupPath, "a.b"},
		{"group then leaf", "a.b.c", "a.b", ConflictGroupIsLeafPath, "a.b"},
		{"duplicate", "a.b", "a.b", ConflictDuplicate, "a.b"},
		{"top level leaf then group", "a", "a.x.y", ConflictLeafIsGroupPath, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			require.NoError(t, b.Insert(rec(tt.first, 8, 0)))

			err := b.Insert(rec(tt.second, 8, 1))
			require.Error(t, err)

			var conflict *NameConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, tt.kind, conflict.Kind)
			assert.Equal(t, tt.second, conflict.Name)
			assert.Equal(t, tt.path, conflict.Path)
			assert.Equal(t, 0, conflict.ExistingSource)
			assert.Equal(t, 1, conflict.IncomingSource)

			// The failed insert must not have changed the tree.
			cat := b.Finalize()
			assert.Equal(t, 1, cat.TensorCount())
			n := cat.Find(tt.first)
			require.NotNil(t, n)
			assert.Equal(t, KindTensor, n.Kind())
		})
	}
}

func TestBuilder_FailedInsertCreatesNoGroups(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert(rec("a.b", 1, 0)))
	require.Error(t, b.Insert(rec("a.b.c.d", 1, 0)))

	cat := b.Finalize()
	assert.Equal(t, []string{"b"}, names(cat.Find("a").Children()))
}

func TestBuilder_EmptyNames(t *testing.T) {
	for _, name := range []string{"", "a..b", ".a", "a."} {
		t.Run(name, func(t *testing.T) {
			err := NewBuilder().Insert(rec(name, 1, 0))
			assert.True(t, errors.Is(err, ErrEmptyName))
		})
	}
}

func TestBuilder_Finalized(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert(rec("x", 1, 0)))
	cat := b.Finalize()

	assert.Same(t, cat, b.Finalize())
	assert.ErrorIs(t, b.Insert(rec("y", 1, 0)), ErrFinalized)
	assert.ErrorIs(t, b.AddMetadata(tensor.MetadataEntry{Key: "k"}), ErrFinalized)
}

func TestBuilder_Metadata(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddMetadata(tensor.MetadataEntry{Key: "general.architecture", Value: `"llama"`, ValueType: "string", SourceIndex: 0}))
	require.NoError(t, b.AddMetadata(tensor.MetadataEntry{Key: "general.architecture", Value: `"llama"`, ValueType: "string", SourceIndex: 1}))
	require.NoError(t, b.AddMetadata(tensor.MetadataEntry{Key: "general.name", Value: `"a"`, ValueType: "string", SourceIndex: 0}))
	require.NoError(t, b.AddMetadata(tensor.MetadataEntry{Key: "general.name", Value: `"b"`, ValueType: "string", SourceIndex: 1}))
	require.NoError(t, b.Insert(rec("w", 4, 0)))
	cat := b.Finalize()

	require.NotNil(t, cat.Metadata)
	assert.Equal(t, MetadataGroupName, cat.Metadata.Name())
	assert.Equal(t,
		[]string{"general.architecture", "general.name", "general.name [#1]"},
		names(cat.Metadata.Children()))
	assert.Equal(t, 0, cat.Metadata.TensorCount())
	assert.Equal(t, 1, cat.TensorCount(), "metadata does not count as tensors")

	entry := cat.Metadata.Child("general.name [#1]")
	require.NotNil(t, entry)
	assert.Equal(t, KindMetadata, entry.Kind())
	assert.Equal(t, `"b"`, entry.Metadata().Value)
}

func TestBuilder_NoMetadata(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert(rec("w", 4, 0)))
	assert.Nil(t, b.Finalize().Metadata)
}

func TestCatalog_WalkAndTensors(t *testing.T) {
	b := NewBuilder()
	for _, n := range []string{"blk.10.w", "blk.2.w", "blk.2.b", "out"} {
		require.NoError(t, b.Insert(rec(n, 1, 0)))
	}
	cat := b.Finalize()

	var visited []string
	cat.Walk(func(n *Node, depth int) bool {
		visited = append(visited, fmt.Sprintf("%d:%s", depth, n.Path()))
		return n.Path() != "blk.10"
	})
	assert.Equal(t, []string{"0:blk", "1:blk.2", "2:blk.2.b", "2:blk.2.w", "1:blk.10", "0:out"}, visited)

	var tensors []string
	for _, r := range cat.Tensors() {
		tensors = append(tensors, r.Name)
	}
	assert.Equal(t, []string{"blk.2.b", "blk.2.w", "blk.10.w", "out"}, tensors)
}

func TestNameConflictError_Message(t *testing.T) {
	err := &NameConflictError{Name: "a.b", Path: "a.b", Kind: ConflictDuplicate, ExistingSource: 0, IncomingSource: 1}
	assert.Equal(t, `name conflict: duplicate tensor "a.b" (sources #0 and #1)`, err.Error())

	err.ExistingFile = "x.safetensors"
	err.IncomingFile = "y.safetensors"
	assert.Equal(t, `name conflict: duplicate tensor "a.b" (existing in x.safetensors, incoming from y.safetensors)`, err.Error())
}
