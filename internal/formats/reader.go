// Package formats reads tensor metadata out of checkpoint files.
//
// Every supported container implements Reader. Readers only parse headers:
// tensor payloads are never read, which keeps listing a multi-gigabyte
// checkpoint cheap.
//
// # Supported formats
//
//   - safetensors: 8-byte little-endian header length followed by a JSON
//     header mapping tensor names to dtype, shape and data offsets.
//   - GGUF (versions 1-3): binary header with typed key/value metadata and
//     a tensor info table, little- or big-endian.
//
// Format selection happens by extension first and falls back to sniffing
// the first bytes of the file (see Detect).
package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tensorscope/internal/tensor"
)

// Listing is everything a reader extracts from one file.
type Listing struct {
	Records  []tensor.Record
	Metadata []tensor.MetadataEntry
	// Version is the container version (GGUF) or 0 when the format has none.
	Version uint32
}

// Reader extracts tensor metadata from one checkpoint format.
type Reader interface {
	Format() tensor.Format
	List(path string) (*Listing, error)
}

// FormatError reports a single source file that could not be parsed.
type FormatError struct {
	Path   string
	Format tensor.Format
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid %s file: %v", e.Path, e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ForFormat returns the reader for a format.
func ForFormat(f tensor.Format) (Reader, error) {
	switch f {
	case tensor.FormatSafetensors:
		return SafetensorsReader{}, nil
	case tensor.FormatGGUF:
		return GGUFReader{}, nil
	default:
		return nil, fmt.Errorf("no reader for format %s", f)
	}
}

// Detect determines the format of path. Known extensions win; anything else
// is sniffed. FormatUnknown with a nil error means the file is readable but
// not a checkpoint.
func Detect(path string) (tensor.Format, error) {
	if f := FormatFromExtension(path); f != tensor.FormatUnknown {
		return f, nil
	}

	//nolint:gosec // G304: reading user-supplied checkpoint paths is the point of this tool.
	file, err := os.Open(path)
	if err != nil {
		return tensor.FormatUnknown, err
	}
	defer func() {
		_ = file.Close()
	}()

	head := make([]byte, 9)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return tensor.FormatUnknown, nil
		}
		return tensor.FormatUnknown, err
	}
	return Sniff(head[:n]), nil
}

// FormatFromExtension maps a file name to a format by extension alone.
func FormatFromExtension(path string) tensor.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".safetensors":
		return tensor.FormatSafetensors
	case ".gguf":
		return tensor.FormatGGUF
	default:
		return tensor.FormatUnknown
	}
}

// Sniff classifies the leading bytes of a file.
func Sniff(head []byte) tensor.Format {
	if len(head) >= 4 && bytes.Equal(head[:4], []byte("GGUF")) {
		return tensor.FormatGGUF
	}
	if len(head) >= 9 {
		size := binary.LittleEndian.Uint64(head[:8])
		if size > 1 && size <= maxSafetensorsHeader && head[8] == '{' {
			return tensor.FormatSafetensors
		}
	}
	return tensor.FormatUnknown
}
