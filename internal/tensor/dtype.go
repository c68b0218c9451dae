package tensor

import (
	"fmt"
	"math/bits"
)

// DType is the element type of a tensor. Safetensors scalar types and GGML
// quantized types share one enum so the catalog never has to care which
// format a record came from.
type DType int

// Supported element types.
//
//nolint:revive // Underscores in names match the upstream type names (Q4_K, F8_E4M3).
const (
	DTypeUnknown DType = iota

	// Scalar types shared by both formats.
	DTypeBool
	DTypeU8
	DTypeI8
	DTypeU16
	DTypeI16
	DTypeU32
	DTypeI32
	DTypeU64
	DTypeI64
	DTypeF16
	DTypeBF16
	DTypeF32
	DTypeF64

	// Safetensors 8-bit float types.
	DTypeF8_E5M2
	DTypeF8_E4M3
	DTypeF8_E8M0

	// GGML block-quantized types.
	DTypeQ4_0
	DTypeQ4_1
	DTypeQ5_0
	DTypeQ5_1
	DTypeQ8_0
	DTypeQ8_1
	DTypeQ2_K
	DTypeQ3_K
	DTypeQ4_K
	DTypeQ5_K
	DTypeQ6_K
	DTypeQ8_K
	DTypeIQ2_XXS
	DTypeIQ2_XS
	DTypeIQ3_XXS
	DTypeIQ1_S
	DTypeIQ4_NL
	DTypeIQ3_S
	DTypeIQ2_S
	DTypeIQ4_XS
	DTypeIQ1_M
	DTypeTQ1_0
	DTypeTQ2_0
	DTypeMXFP4
)

// Trait describes the storage layout of a dtype: BlockSize elements are
// packed into TypeSize bytes.
type Trait struct {
	Name      string
	BlockSize uint64
	TypeSize  uint64
	Quantized bool
}

var traits = map[DType]Trait{
	DTypeBool:    {Name: "BOOL", BlockSize: 1, TypeSize: 1},
	DTypeU8:      {Name: "U8", BlockSize: 1, TypeSize: 1},
	DTypeI8:      {Name: "I8", BlockSize: 1, TypeSize: 1},
	DTypeU16:     {Name: "U16", BlockSize: 1, TypeSize: 2},
	DTypeI16:     {Name: "I16", BlockSize: 1, TypeSize: 2},
	DTypeU32:     {Name: "U32", BlockSize: 1, TypeSize: 4},
	DTypeI32:     {Name: "I32", BlockSize: 1, TypeSize: 4},
	DTypeU64:     {Name: "U64", BlockSize: 1, TypeSize: 8},
	DTypeI64:     {Name: "I64", BlockSize: 1, TypeSize: 8},
	DTypeF16:     {Name: "F16", BlockSize: 1, TypeSize: 2},
	DTypeBF16:    {Name: "BF16", BlockSize: 1, TypeSize: 2},
	DTypeF32:     {Name: "F32", BlockSize: 1, TypeSize: 4},
	DTypeF64:     {Name: "F64", BlockSize: 1, TypeSize: 8},
	DTypeF8_E5M2: {Name: "F8_E5M2", BlockSize: 1, TypeSize: 1},
	DTypeF8_E4M3: {Name: "F8_E4M3", BlockSize: 1, TypeSize: 1},
	DTypeF8_E8M0: {Name: "F8_E8M0", BlockSize: 1, TypeSize: 1},

	DTypeQ4_0:    {Name: "Q4_0", BlockSize: 32, TypeSize: 18, Quantized: true},
	DTypeQ4_1:    {Name: "Q4_1", BlockSize: 32, TypeSize: 20, Quantized: true},
	DTypeQ5_0:    {Name: "Q5_0", BlockSize: 32, TypeSize: 22, Quantized: true},
	DTypeQ5_1:    {Name: "Q5_1", BlockSize: 32, TypeSize: 24, Quantized: true},
	DTypeQ8_0:    {Name: "Q8_0", BlockSize: 32, TypeSize: 34, Quantized: true},
	DTypeQ8_1:    {Name: "Q8_1", BlockSize: 32, TypeSize: 36, Quantized: true},
	DTypeQ2_K:    {Name: "Q2_K", BlockSize: 256, TypeSize: 84, Quantized: true},
	DTypeQ3_K:    {Name: "Q3_K", BlockSize: 256, TypeSize: 110, Quantized: true},
	DTypeQ4_K:    {Name: "Q4_K", BlockSize: 256, TypeSize: 144, Quantized: true},
	DTypeQ5_K:    {Name: "Q5_K", BlockSize: 256, TypeSize: 176, Quantized: true},
	DTypeQ6_K:    {Name: "Q6_K", BlockSize: 256, TypeSize: 210, Quantized: true},
	DTypeQ8_K:    {Name: "Q8_K", BlockSize: 256, TypeSize: 292, Quantized: true},
	DTypeIQ2_XXS: {Name: "IQ2_XXS", BlockSize: 256, TypeSize: 66, Quantized: true},
	DTypeIQ2_XS:  {Name: "IQ2_XS", BlockSize: 256, TypeSize: 74, Quantized: true},
	DTypeIQ3_XXS: {Name: "IQ3_XXS", BlockSize: 256, TypeSize: 98, Quantized: true},
	DTypeIQ1_S:   {Name: "IQ1_S", BlockSize: 256, TypeSize: 50, Quantized: true},
	DTypeIQ4_NL:  {Name: "IQ4_NL", BlockSize: 32, TypeSize: 18, Quantized: true},
	DTypeIQ3_S:   {Name: "IQ3_S", BlockSize: 256, TypeSize: 110, Quantized: true},
	DTypeIQ2_S:   {Name: "IQ2_S", BlockSize: 256, TypeSize: 82, Quantized: true},
	DTypeIQ4_XS:  {Name: "IQ4_XS", BlockSize: 256, TypeSize: 136, Quantized: true},
	DTypeIQ1_M:   {Name: "IQ1_M", BlockSize: 256, TypeSize: 56, Quantized: true},
	DTypeTQ1_0:   {Name: "TQ1_0", BlockSize: 256, TypeSize: 54, Quantized: true},
	DTypeTQ2_0:   {Name: "TQ2_0", BlockSize: 256, TypeSize: 66, Quantized: true},
	DTypeMXFP4:   {Name: "MXFP4", BlockSize: 32, TypeSize: 17, Quantized: true},
}

// Trait returns the storage trait for the dtype. Unknown dtypes report a
// zero TypeSize.
func (d DType) Trait() Trait {
	if t, ok := traits[d]; ok {
		return t
	}
	return Trait{Name: "UNKNOWN", BlockSize: 1}
}

// String returns the canonical upper-case name, e.g. "BF16" or "Q4_K".
func (d DType) String() string {
	return d.Trait().Name
}

// IsQuantized reports whether the dtype is a GGML block-quantized type.
func (d DType) IsQuantized() bool {
	return d.Trait().Quantized
}

// StorageSize returns the number of bytes needed to store n elements.
// Partial trailing blocks are rounded up to a whole block.
func (d DType) StorageSize(n uint64) uint64 {
	size, _ := d.CheckedStorageSize(n)
	return size
}

// CheckedStorageSize is StorageSize failing with ErrSizeOverflow when the
// byte count does not fit in 64 bits.
func (d DType) CheckedStorageSize(n uint64) (uint64, error) {
	t := d.Trait()
	blocks := n / t.BlockSize
	if n%t.BlockSize != 0 {
		blocks++
	}
	hi, lo := bits.Mul64(blocks, t.TypeSize)
	if hi != 0 {
		return 0, fmt.Errorf("%d elements of %s: %w", n, d, ErrSizeOverflow)
	}
	return lo, nil
}

// safetensorsNames maps the dtype strings found in a safetensors header.
var safetensorsNames = map[string]DType{
	"BOOL":    DTypeBool,
	"U8":      DTypeU8,
	"I8":      DTypeI8,
	"U16":     DTypeU16,
	"I16":     DTypeI16,
	"U32":     DTypeU32,
	"I32":     DTypeI32,
	"U64":     DTypeU64,
	"I64":     DTypeI64,
	"F16":     DTypeF16,
	"BF16":    DTypeBF16,
	"F32":     DTypeF32,
	"F64":     DTypeF64,
	"F8_E5M2": DTypeF8_E5M2,
	"F8_E4M3": DTypeF8_E4M3,
	"F8_E8M0": DTypeF8_E8M0,
}

// ParseSafetensorsDType converts a safetensors header dtype string.
func ParseSafetensorsDType(s string) (DType, error) {
	if d, ok := safetensorsNames[s]; ok {
		return d, nil
	}
	return DTypeUnknown, fmt.Errorf("unsupported safetensors dtype %q", s)
}

// ggmlTypes maps GGML type ids (ggml.h enum ggml_type) onto DType.
// Ids 4 and 5 (Q4_2, Q4_3) and 31-33, 36-38 were removed upstream.
var ggmlTypes = map[uint32]DType{
	0:  DTypeF32,
	1:  DTypeF16,
	2:  DTypeQ4_0,
	3:  DTypeQ4_1,
	6:  DTypeQ5_0,
	7:  DTypeQ5_1,
	8:  DTypeQ8_0,
	9:  DTypeQ8_1,
	10: DTypeQ2_K,
	11: DTypeQ3_K,
	12: DTypeQ4_K,
	13: DTypeQ5_K,
	14: DTypeQ6_K,
	15: DTypeQ8_K,
	16: DTypeIQ2_XXS,
	17: DTypeIQ2_XS,
	18: DTypeIQ3_XXS,
	19: DTypeIQ1_S,
	20: DTypeIQ4_NL,
	21: DTypeIQ3_S,
	22: DTypeIQ2_S,
	23: DTypeIQ4_XS,
	24: DTypeI8,
	25: DTypeI16,
	26: DTypeI32,
	27: DTypeI64,
	28: DTypeF64,
	29: DTypeIQ1_M,
	30: DTypeBF16,
	34: DTypeTQ1_0,
	35: DTypeTQ2_0,
	39: DTypeMXFP4,
}

// FromGGML converts a GGML tensor type id.
func FromGGML(id uint32) (DType, error) {
	if d, ok := ggmlTypes[id]; ok {
		return d, nil
	}
	return DTypeUnknown, fmt.Errorf("unknown GGML tensor type %d", id)
}
