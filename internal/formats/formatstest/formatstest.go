// Package formatstest writes small checkpoint fixtures for tests.
package formatstest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// SafeTensor describes one tensor of a safetensors fixture. Tensors are
// laid out back to back in the order given.
type SafeTensor struct {
	Name  string
	DType string
	Shape []uint64
	Bytes uint64
}

// WriteSafetensors writes a safetensors file with zero-filled payloads and
// returns its path.
func WriteSafetensors(t *testing.T, dir, name string, tensors []SafeTensor, metadata map[string]string) string {
	t.Helper()

	header := make(map[string]interface{})
	if metadata != nil {
		header["__metadata__"] = metadata
	}
	var offset uint64
	for _, ts := range tensors {
		shape := ts.Shape
		if shape == nil {
			shape = []uint64{}
		}
		header[ts.Name] = map[string]interface{}{
			"dtype":        ts.DType,
			"shape":        shape,
			"data_offsets": [2]uint64{offset, offset + ts.Bytes},
		}
		offset += ts.Bytes
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		t.Fatalf("marshal safetensors header: %v", err)
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		t.Fatalf("write header size: %v", err)
	}
	buf.Write(headerJSON)
	buf.Write(make([]byte, offset))

	return writeFile(t, dir, name, buf.Bytes())
}

// GGUFTensor describes one tensor of a GGUF fixture.
type GGUFTensor struct {
	Name string
	Type uint32
	Dims []uint64
	// Offset inside the data section.
	Offset uint64
}

// GGUFKV is a metadata entry of a GGUF fixture. Value may be a string,
// uint32, float32, bool or []string.
type GGUFKV struct {
	Key   string
	Value interface{}
}

// GGUF value type tags used by the fixtures.
const (
	ggufUint32  uint32 = 4
	ggufFloat32 uint32 = 6
	ggufBool    uint32 = 7
	ggufString  uint32 = 8
	ggufArray   uint32 = 9
)

// BuildGGUF encodes a little-endian GGUF v3 file whose data section holds
// dataBytes zero bytes.
func BuildGGUF(t *testing.T, kvs []GGUFKV, tensors []GGUFTensor, dataBytes int) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	order := binary.LittleEndian
	put := func(v interface{}) {
		if err := binary.Write(buf, order, v); err != nil {
			t.Fatalf("write gguf field: %v", err)
		}
	}
	putString := func(s string) {
		put(uint64(len(s)))
		buf.WriteString(s)
	}

	buf.WriteString("GGUF")
	put(uint32(3))
	put(uint64(len(tensors)))
	put(uint64(len(kvs)))

	for _, kv := range kvs {
		putString(kv.Key)
		switch v := kv.Value.(type) {
		case string:
			put(ggufString)
			putString(v)
		case uint32:
			put(ggufUint32)
			put(v)
		case float32:
			put(ggufFloat32)
			put(v)
		case bool:
			put(ggufBool)
			if v {
				put(uint8(1))
			} else {
				put(uint8(0))
			}
		case []string:
			put(ggufArray)
			put(ggufString)
			put(uint64(len(v)))
			for _, s := range v {
				putString(s)
			}
		default:
			t.Fatalf("unsupported fixture value %T for %s", kv.Value, kv.Key)
		}
	}

	for _, ts := range tensors {
		putString(ts.Name)
		put(uint32(len(ts.Dims)))
		for _, d := range ts.Dims {
			put(d)
		}
		put(ts.Type)
		put(ts.Offset)
	}

	for buf.Len()%32 != 0 {
		buf.WriteByte(0)
	}
	buf.Write(make([]byte, dataBytes))
	return buf.Bytes()
}

// WriteGGUF writes BuildGGUF output to dir/name and returns the path.
func WriteGGUF(t *testing.T, dir, name string, kvs []GGUFKV, tensors []GGUFTensor, dataBytes int) string {
	t.Helper()
	return writeFile(t, dir, name, BuildGGUF(t, kvs, tensors, dataBytes))
}

// WriteFile writes raw bytes to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	return writeFile(t, dir, name, data)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
