package formats

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"tensorscope/internal/tensor"
)

// SafeTensors layout:
// [8 bytes: header size (uint64 LE)]
// [header size bytes: JSON header]
// [tensor data]

// maxSafetensorsHeader mirrors the limit enforced by the reference
// implementation.
const maxSafetensorsHeader = 100 * 1024 * 1024

const safetensorsMetadataKey = "__metadata__"

// safetensorsEntry is one tensor entry of the JSON header.
type safetensorsEntry struct {
	DType       string    `json:"dtype"`
	Shape       []uint64  `json:"shape"`
	DataOffsets [2]uint64 `json:"data_offsets"`
}

// SafetensorsReader reads safetensors headers.
type SafetensorsReader struct{}

// Format implements Reader.
func (SafetensorsReader) Format() tensor.Format {
	return tensor.FormatSafetensors
}

// List implements Reader.
func (r SafetensorsReader) List(path string) (*Listing, error) {
	//nolint:gosec // G304: reading user-supplied checkpoint paths is the point of this tool.
	file, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Format: tensor.FormatSafetensors, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, &FormatError{Path: path, Format: tensor.FormatSafetensors, Err: fmt.Errorf("stat file: %w", err)}
	}

	listing, err := parseSafetensors(file, uint64(stat.Size())) //nolint:gosec // G115: file sizes are non-negative.
	if err != nil {
		return nil, &FormatError{Path: path, Format: tensor.FormatSafetensors, Err: err}
	}
	return listing, nil
}

func parseSafetensors(r io.Reader, fileSize uint64) (*Listing, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("read header size: %w", err)
	}
	if headerSize > maxSafetensorsHeader {
		return nil, fmt.Errorf("invalid header size: %d (too large)", headerSize)
	}
	if headerSize > fileSize-8 {
		return nil, fmt.Errorf("truncated header: declares %d bytes, file has %d", headerSize, fileSize-8)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &raw); err != nil {
		return nil, fmt.Errorf("parse header JSON: %w", err)
	}

	dataSize := fileSize - 8 - headerSize
	listing := &Listing{}

	for name, value := range raw {
		if name == safetensorsMetadataKey {
			var meta map[string]string
			if err := json.Unmarshal(value, &meta); err != nil {
				return nil, fmt.Errorf("parse %s: %w", safetensorsMetadataKey, err)
			}
			for k, v := range meta {
				listing.Metadata = append(listing.Metadata, tensor.MetadataEntry{
					Key:       k,
					Value:     fmt.Sprintf("%q", v),
					ValueType: "string",
				})
			}
			continue
		}

		var entry safetensorsEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return nil, fmt.Errorf("parse tensor %s: %w", name, err)
		}
		dtype, err := tensor.ParseSafetensorsDType(entry.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		start, end := entry.DataOffsets[0], entry.DataOffsets[1]
		if end < start {
			return nil, fmt.Errorf("invalid data offsets for tensor %s: [%d, %d]", name, start, end)
		}
		if end > dataSize {
			return nil, fmt.Errorf("truncated data: tensor %s ends at %d, data section has %d bytes", name, end, dataSize)
		}

		shape := entry.Shape
		if shape == nil {
			shape = []uint64{}
		}
		elements, err := tensor.ElementCount(shape)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		want, err := dtype.CheckedStorageSize(elements)
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", name, err)
		}
		if end-start != want {
			return nil, fmt.Errorf("size mismatch for tensor %s: data offsets span %d bytes, %s %v needs %d", name, end-start, dtype, shape, want)
		}
		listing.Records = append(listing.Records, tensor.Record{
			Name:     name,
			DType:    dtype,
			Shape:    shape,
			ByteSize: end - start,
			Offset:   start,
		})
	}

	// JSON objects are unordered; present tensors in file order.
	sort.Slice(listing.Records, func(i, j int) bool {
		a, b := listing.Records[i], listing.Records[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.Name < b.Name
	})
	sort.Slice(listing.Metadata, func(i, j int) bool {
		return listing.Metadata[i].Key < listing.Metadata[j].Key
	})

	return listing, nil
}
