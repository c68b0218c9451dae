// Package tensor defines the format-independent metadata records produced by
// the checkpoint readers and consumed by the catalog.
package tensor

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Format identifies a checkpoint container format.
type Format int

const (
	FormatUnknown Format = iota
	FormatSafetensors
	FormatGGUF
)

// String makes Format satisfy the fmt.Stringer interface.
func (f Format) String() string {
	switch f {
	case FormatSafetensors:
		return "safetensors"
	case FormatGGUF:
		return "gguf"
	default:
		return "unknown"
	}
}

// Record is the metadata of a single tensor. It never carries payload bytes.
type Record struct {
	// Name is the dot-segmented logical name, unique within one source.
	Name  string
	DType DType
	// Shape is empty for scalars.
	Shape    []uint64
	ByteSize uint64
	// Offset is the payload position relative to the start of the file's
	// data section.
	Offset uint64
	// SourceIndex points into the resolved source list.
	SourceIndex int
}

// ErrSizeOverflow reports a shape or byte size that does not fit in 64 bits.
var ErrSizeOverflow = errors.New("tensor size overflows 64 bits")

// ElementCount multiplies out shape, failing with ErrSizeOverflow instead of
// wrapping. Readers use it to validate headers before building a Record.
func ElementCount(shape []uint64) (uint64, error) {
	for _, d := range shape {
		if d == 0 {
			return 0, nil
		}
	}
	n := uint64(1)
	for _, d := range shape {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("shape %v: %w", shape, ErrSizeOverflow)
		}
		n = lo
	}
	return n, nil
}

// Elements returns the number of elements described by the shape. A scalar
// (empty shape) holds one element. Records from the readers are validated
// with ElementCount, so this never wraps for them.
func (r Record) Elements() uint64 {
	n := uint64(1)
	for _, d := range r.Shape {
		n *= d
	}
	return n
}

// ShapeString renders the shape the way it is shown in the browser, e.g.
// "(4096, 11008)" or "()" for a scalar.
func (r Record) ShapeString() string {
	parts := make([]string, len(r.Shape))
	for i, d := range r.Shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// MetadataEntry is one key/value pair from a checkpoint header, rendered to
// a display string.
type MetadataEntry struct {
	Key         string
	Value       string
	ValueType   string
	SourceIndex int
}
