package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGGML(t *testing.T) {
	tests := []struct {
		id       uint32
		expected DType
		name     string
	}{
		{0, DTypeF32, "F32"},
		{1, DTypeF16, "F16"},
		{12, DTypeQ4_K, "Q4_K"},
		{29, DTypeIQ1_M, "IQ1_M"},
		{30, DTypeBF16, "BF16"},
		{39, DTypeMXFP4, "MXFP4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromGGML(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
			assert.Equal(t, tt.name, d.String())
		})
	}

	_, err := FromGGML(4)
	assert.Error(t, err, "Q4_2 was removed upstream")
}

func TestParseSafetensorsDType(t *testing.T) {
	d, err := ParseSafetensorsDType("BF16")
	require.NoError(t, err)
	assert.Equal(t, DTypeBF16, d)
	assert.False(t, d.IsQuantized())

	_, err = ParseSafetensorsDType("F128")
	assert.Error(t, err)
}

func TestStorageSize(t *testing.T) {
	tests := []struct {
		name     string
		dtype    DType
		elements uint64
		expected uint64
	}{
		{"f32 vector", DTypeF32, 128, 512},
		{"bf16 matrix", DTypeBF16, 16 * 32, 1024},
		{"q4_0 whole blocks", DTypeQ4_0, 64, 36},
		{"q4_0 partial block rounds up", DTypeQ4_0, 33, 36},
		{"q4_k super block", DTypeQ4_K, 256 * 4, 576},
		{"empty tensor", DTypeF16, 0, 0},
		{"unknown dtype has no size", DTypeUnknown, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dtype.StorageSize(tt.elements))
		})
	}
}

func TestRecordElementsAndShape(t *testing.T) {
	r := Record{Name: "w", Shape: []uint64{4, 8}}
	assert.Equal(t, uint64(32), r.Elements())
	assert.Equal(t, "(4, 8)", r.ShapeString())

	scalar := Record{Name: "s"}
	assert.Equal(t, uint64(1), scalar.Elements())
	assert.Equal(t, "()", scalar.ShapeString())
}

func TestElementCount(t *testing.T) {
	n, err := ElementCount([]uint64{4096, 11008})
	require.NoError(t, err)
	assert.Equal(t, uint64(4096*11008), n)

	n, err = ElementCount(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	_, err = ElementCount([]uint64{1 << 32, 1 << 32})
	assert.ErrorIs(t, err, ErrSizeOverflow)

	n, err = ElementCount([]uint64{1 << 40, 1 << 40, 0})
	require.NoError(t, err, "any zero dimension means an empty tensor")
	assert.Zero(t, n)
}

func TestCheckedStorageSize(t *testing.T) {
	size, err := DTypeF32.CheckedStorageSize(1 << 61)
	require.NoError(t, err)
	assert.Equal(t, uint64(1)<<63, size)

	_, err = DTypeF32.CheckedStorageSize(1 << 62)
	assert.ErrorIs(t, err, ErrSizeOverflow)

	size, err = DTypeQ4_0.CheckedStorageSize(math.MaxUint64)
	require.NoError(t, err, "block rounding must not wrap")
	assert.Equal(t, (uint64(math.MaxUint64)/32+1)*18, size)
}
