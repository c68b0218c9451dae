package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IndexFileName is the manifest that sharded safetensors checkpoints ship
// next to their shards.
const IndexFileName = "model.safetensors.index.json"

// Manifest is a parsed safetensors index: a map from tensor name to the
// shard file holding it.
type Manifest struct {
	// Path of the index file itself.
	Path string
	// WeightMap maps tensor names to shard file names relative to the
	// index file's directory.
	WeightMap map[string]string
	// TotalSize is metadata.total_size when present.
	TotalSize uint64
}

type manifestFile struct {
	Metadata struct {
		TotalSize uint64 `json:"total_size"`
	} `json:"metadata"`
	WeightMap map[string]string `json:"weight_map"`
}

// IsManifest reports whether path names a safetensors index file.
func IsManifest(path string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(path)), ".index.json")
}

// LoadManifest reads and parses an index file.
func LoadManifest(path string) (*Manifest, error) {
	//nolint:gosec // G304: index files are user-supplied on purpose.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", path, err)
	}

	var raw manifestFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", path, err)
	}
	if len(raw.WeightMap) == 0 {
		return nil, fmt.Errorf("index file %s has no weight_map entries", path)
	}

	return &Manifest{
		Path:      path,
		WeightMap: raw.WeightMap,
		TotalSize: raw.Metadata.TotalSize,
	}, nil
}

// Dir is the directory shard names are relative to.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Shards returns the distinct shard paths the manifest references, sorted.
func (m *Manifest) Shards() []string {
	seen := make(map[string]bool)
	var out []string
	for _, shard := range m.WeightMap {
		p := filepath.Join(m.Dir(), shard)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ShardFor returns the shard path the manifest assigns to a tensor.
func (m *Manifest) ShardFor(tensorName string) (string, bool) {
	shard, ok := m.WeightMap[tensorName]
	if !ok {
		return "", false
	}
	return filepath.Join(m.Dir(), shard), true
}
