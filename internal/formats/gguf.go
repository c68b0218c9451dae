package formats

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"tensorscope/internal/tensor"
)

// GGUF specification: https://github.com/ggerganov/ggml/blob/master/docs/gguf.md

const (
	ggufMagic            = "GGUF"
	ggufDefaultAlignment = 32
	ggufMaxDims          = 8

	// Sanity limits guarding against corrupt counts.
	ggufMaxCount       = 1 << 24
	ggufMaxArrayLength = 100_000_000
	ggufMaxStringLen   = 64 * 1024 * 1024
)

// ggufValueType is the type tag of a metadata value.
type ggufValueType uint32

const (
	ggufUint8   ggufValueType = 0
	ggufInt8    ggufValueType = 1
	ggufUint16  ggufValueType = 2
	ggufInt16   ggufValueType = 3
	ggufUint32  ggufValueType = 4
	ggufInt32   ggufValueType = 5
	ggufFloat32 ggufValueType = 6
	ggufBool    ggufValueType = 7
	ggufString  ggufValueType = 8
	ggufArray   ggufValueType = 9
	ggufUint64  ggufValueType = 10
	ggufInt64   ggufValueType = 11
	ggufFloat64 ggufValueType = 12
)

func (t ggufValueType) String() string {
	names := map[ggufValueType]string{
		ggufUint8:   "uint8",
		ggufInt8:    "int8",
		ggufUint16:  "uint16",
		ggufInt16:   "int16",
		ggufUint32:  "uint32",
		ggufInt32:   "int32",
		ggufFloat32: "float32",
		ggufBool:    "bool",
		ggufString:  "string",
		ggufArray:   "array",
		ggufUint64:  "uint64",
		ggufInt64:   "int64",
		ggufFloat64: "float64",
	}
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint32(t))
}

// ggufArrayValue keeps only the elements needed for display: all of them for
// short arrays, otherwise the first two and the last.
type ggufArrayValue struct {
	elemType ggufValueType
	length   uint64
	head     []interface{}
	last     interface{}
}

const ggufArrayShowAll = 5

// GGUFReader reads GGUF headers and tensor info tables.
type GGUFReader struct{}

// Format implements Reader.
func (GGUFReader) Format() tensor.Format {
	return tensor.FormatGGUF
}

// List implements Reader.
func (GGUFReader) List(path string) (*Listing, error) {
	//nolint:gosec // G304: reading user-supplied checkpoint paths is the point of this tool.
	file, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Format: tensor.FormatGGUF, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, &FormatError{Path: path, Format: tensor.FormatGGUF, Err: fmt.Errorf("stat file: %w", err)}
	}

	listing, err := parseGGUF(file, uint64(stat.Size())) //nolint:gosec // G115: file sizes are non-negative.
	if err != nil {
		return nil, &FormatError{Path: path, Format: tensor.FormatGGUF, Err: err}
	}
	return listing, nil
}

type ggufParser struct {
	r       *bufio.Reader
	order   binary.ByteOrder
	version uint32
	pos     uint64
}

func parseGGUF(r io.Reader, fileSize uint64) (*Listing, error) {
	p := &ggufParser{
		r:     bufio.NewReaderSize(r, 1<<16),
		order: binary.LittleEndian,
	}
	return p.parse(fileSize)
}

func (p *ggufParser) parse(fileSize uint64) (*Listing, error) {
	tensorCount, kvCount, err := p.parseHeader()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	listing := &Listing{Version: p.version}
	alignment := uint64(ggufDefaultAlignment)

	for i := uint64(0); i < kvCount; i++ {
		key, valueType, value, err := p.parseMetadataKV()
		if err != nil {
			return nil, fmt.Errorf("parse metadata kv %d: %w", i, err)
		}
		if key == "general.alignment" {
			if align, ok := value.(uint32); ok && align > 0 {
				alignment = uint64(align)
			}
		}
		listing.Metadata = append(listing.Metadata, tensor.MetadataEntry{
			Key:       key,
			Value:     formatGGUFValue(value),
			ValueType: describeGGUFType(valueType, value),
		})
	}

	listing.Records = make([]tensor.Record, 0, tensorCount)
	for i := uint64(0); i < tensorCount; i++ {
		rec, err := p.parseTensorInfo()
		if err != nil {
			return nil, fmt.Errorf("parse tensor info %d: %w", i, err)
		}
		listing.Records = append(listing.Records, rec)
	}

	dataStart := alignOffset(p.pos, alignment)
	for _, rec := range listing.Records {
		// Compare against what is left so corrupt offsets cannot wrap.
		if dataStart > fileSize {
			return nil, fmt.Errorf("truncated data: data section starts at byte %d, file has %d", dataStart, fileSize)
		}
		avail := fileSize - dataStart
		if rec.Offset > avail || rec.ByteSize > avail-rec.Offset {
			return nil, fmt.Errorf("truncated data: tensor %s needs %d bytes at data offset %d, data section has %d", rec.Name, rec.ByteSize, rec.Offset, avail)
		}
	}

	return listing, nil
}

func (p *ggufParser) parseHeader() (tensorCount, kvCount uint64, err error) {
	magic := make([]byte, 4)
	if err := p.readFull(magic); err != nil {
		return 0, 0, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != ggufMagic {
		return 0, 0, fmt.Errorf("invalid magic: %q (expected GGUF)", magic)
	}

	var version uint32
	if err := p.read(&version); err != nil {
		return 0, 0, fmt.Errorf("read version: %w", err)
	}
	// Big-endian files store the version byte-swapped.
	if version&0xFFFF == 0 && version != 0 {
		version = swap32(version)
		p.order = binary.BigEndian
	}
	if version < 1 || version > 3 {
		return 0, 0, fmt.Errorf("unsupported version: %d (supported: 1-3)", version)
	}
	p.version = version

	if tensorCount, err = p.readCount(); err != nil {
		return 0, 0, fmt.Errorf("read tensor count: %w", err)
	}
	if kvCount, err = p.readCount(); err != nil {
		return 0, 0, fmt.Errorf("read metadata kv count: %w", err)
	}
	if tensorCount > ggufMaxCount || kvCount > ggufMaxCount {
		return 0, 0, fmt.Errorf("implausible counts: %d tensors, %d metadata entries", tensorCount, kvCount)
	}
	return tensorCount, kvCount, nil
}

func (p *ggufParser) parseMetadataKV() (string, ggufValueType, interface{}, error) {
	key, err := p.readString()
	if err != nil {
		return "", 0, nil, fmt.Errorf("read key: %w", err)
	}

	var vt uint32
	if err := p.read(&vt); err != nil {
		return "", 0, nil, fmt.Errorf("read value type for %s: %w", key, err)
	}

	value, err := p.parseValue(ggufValueType(vt))
	if err != nil {
		return "", 0, nil, fmt.Errorf("read value for %s: %w", key, err)
	}
	return key, ggufValueType(vt), value, nil
}

func (p *ggufParser) parseValue(t ggufValueType) (interface{}, error) {
	switch t {
	case ggufUint8:
		return readScalar[uint8](p)
	case ggufInt8:
		return readScalar[int8](p)
	case ggufUint16:
		return readScalar[uint16](p)
	case ggufInt16:
		return readScalar[int16](p)
	case ggufUint32:
		return readScalar[uint32](p)
	case ggufInt32:
		return readScalar[int32](p)
	case ggufFloat32:
		return readScalar[float32](p)
	case ggufUint64:
		return readScalar[uint64](p)
	case ggufInt64:
		return readScalar[int64](p)
	case ggufFloat64:
		return readScalar[float64](p)
	case ggufBool:
		v, err := readScalar[uint8](p)
		if err != nil {
			return nil, err
		}
		return v.(uint8) != 0, nil
	case ggufString:
		return p.readString()
	case ggufArray:
		return p.parseArray()
	default:
		return nil, fmt.Errorf("unknown value type: %d", uint32(t))
	}
}

func readScalar[T uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64](p *ggufParser) (interface{}, error) {
	var v T
	if err := p.read(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *ggufParser) parseArray() (interface{}, error) {
	var elemType uint32
	if err := p.read(&elemType); err != nil {
		return nil, fmt.Errorf("read array element type: %w", err)
	}
	length, err := p.readCount()
	if err != nil {
		return nil, fmt.Errorf("read array length: %w", err)
	}
	if length > ggufMaxArrayLength {
		return nil, fmt.Errorf("array too large: %d elements", length)
	}

	arr := &ggufArrayValue{elemType: ggufValueType(elemType), length: length}
	for i := uint64(0); i < length; i++ {
		v, err := p.parseValue(arr.elemType)
		if err != nil {
			return nil, fmt.Errorf("read array element %d: %w", i, err)
		}
		switch {
		case length <= ggufArrayShowAll || i < 2:
			arr.head = append(arr.head, v)
		case i == length-1:
			arr.last = v
		}
	}
	return arr, nil
}

func (p *ggufParser) parseTensorInfo() (tensor.Record, error) {
	name, err := p.readString()
	if err != nil {
		return tensor.Record{}, fmt.Errorf("read tensor name: %w", err)
	}

	var nDims uint32
	if err := p.read(&nDims); err != nil {
		return tensor.Record{}, fmt.Errorf("read ndims for %s: %w", name, err)
	}
	if nDims > ggufMaxDims {
		return tensor.Record{}, fmt.Errorf("too many dimensions for %s: %d", name, nDims)
	}

	shape := make([]uint64, nDims)
	for i := range shape {
		if shape[i], err = p.readCount(); err != nil {
			return tensor.Record{}, fmt.Errorf("read dimension %d of %s: %w", i, name, err)
		}
	}

	var typeID uint32
	if err := p.read(&typeID); err != nil {
		return tensor.Record{}, fmt.Errorf("read type of %s: %w", name, err)
	}
	dtype, err := tensor.FromGGML(typeID)
	if err != nil {
		return tensor.Record{}, fmt.Errorf("tensor %s: %w", name, err)
	}

	var offset uint64
	if err := p.read(&offset); err != nil {
		return tensor.Record{}, fmt.Errorf("read offset of %s: %w", name, err)
	}

	elements, err := tensor.ElementCount(shape)
	if err != nil {
		return tensor.Record{}, fmt.Errorf("tensor %s: %w", name, err)
	}
	size, err := dtype.CheckedStorageSize(elements)
	if err != nil {
		return tensor.Record{}, fmt.Errorf("tensor %s: %w", name, err)
	}

	return tensor.Record{
		Name:     name,
		DType:    dtype,
		Shape:    shape,
		Offset:   offset,
		ByteSize: size,
	}, nil
}

func (p *ggufParser) read(v interface{}) error {
	if err := binary.Read(p.r, p.order, v); err != nil {
		return err
	}
	p.pos += uint64(binary.Size(v)) //nolint:gosec // G115: binary.Size of a fixed-size value is non-negative.
	return nil
}

func (p *ggufParser) readFull(buf []byte) error {
	n, err := io.ReadFull(p.r, buf)
	p.pos += uint64(n) //nolint:gosec // G115: n is non-negative.
	return err
}

// readCount reads a length or count field: 32-bit in GGUF v1, 64-bit after.
func (p *ggufParser) readCount() (uint64, error) {
	if p.version == 1 {
		var v uint32
		err := p.read(&v)
		return uint64(v), err
	}
	var v uint64
	err := p.read(&v)
	return v, err
}

func (p *ggufParser) readString() (string, error) {
	n, err := p.readCount()
	if err != nil {
		return "", err
	}
	if n > ggufMaxStringLen {
		return "", fmt.Errorf("string too long: %d bytes", n)
	}
	buf := make([]byte, n)
	if err := p.readFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func alignOffset(offset, alignment uint64) uint64 {
	return (offset + alignment - 1) / alignment * alignment
}

func swap32(v uint32) uint32 {
	return v>>24 | (v>>8)&0xFF00 | (v<<8)&0xFF0000 | v<<24
}

func describeGGUFType(t ggufValueType, value interface{}) string {
	if arr, ok := value.(*ggufArrayValue); ok {
		return fmt.Sprintf("array[%s]", arr.elemType)
	}
	return t.String()
}

func formatGGUFValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return `"` + v + `"`
	case *ggufArrayValue:
		parts := make([]string, 0, len(v.head)+2)
		for _, item := range v.head {
			parts = append(parts, formatGGUFValue(item))
		}
		if v.length <= ggufArrayShowAll {
			return "[" + strings.Join(parts, ", ") + "]"
		}
		parts = append(parts, "...", formatGGUFValue(v.last))
		return fmt.Sprintf("[%s (%d)]", strings.Join(parts, ", "), v.length)
	default:
		return fmt.Sprint(v)
	}
}
