// Package source expands command-line arguments into the list of checkpoint
// files to load.
//
// An argument may be a file, a directory, a glob pattern (including "**"),
// or a safetensors index file. Directories holding a
// model.safetensors.index.json contribute only the shards that index
// references; other directories contribute every .safetensors and .gguf
// file they contain, recursively when asked to.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"tensorscope/internal/formats"
	"tensorscope/internal/tensor"
	"tensorscope/pkg/logging"
)

const subsystem = "Source"

// Source is one resolved checkpoint file.
type Source struct {
	Path   string
	Format tensor.Format
	// Manifest is the index that referenced this file, if any.
	Manifest *Manifest
}

// Options controls resolution.
type Options struct {
	// Recursive scans directories without an index file recursively.
	Recursive bool
	// RequireAllShards turns a shard referenced by an index but missing on
	// disk into a ResolutionError instead of a warning.
	RequireAllShards bool
}

// ResolutionError reports arguments that did not resolve to any usable file.
type ResolutionError struct {
	Args   []string
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = "no safetensors or GGUF files found"
	}
	if len(e.Args) > 0 {
		msg = fmt.Sprintf("%s (arguments: %s)", msg, strings.Join(e.Args, ", "))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolve expands args into sources, de-duplicated and sorted by path.
func Resolve(args []string, opts Options) ([]Source, error) {
	if len(args) == 0 {
		return nil, &ResolutionError{Reason: "no paths given"}
	}

	r := &resolver{opts: opts, seen: make(map[string]int)}
	for _, arg := range args {
		if err := r.resolveArg(arg); err != nil {
			return nil, err
		}
	}

	if len(r.sources) == 0 {
		return nil, &ResolutionError{Args: args}
	}

	sort.Slice(r.sources, func(i, j int) bool {
		return r.sources[i].Path < r.sources[j].Path
	})
	logging.Debug(subsystem, "resolved %d argument(s) to %d file(s)", len(args), len(r.sources))
	return r.sources, nil
}

type resolver struct {
	opts    Options
	sources []Source
	seen    map[string]int
}

func (r *resolver) resolveArg(arg string) error {
	if _, err := os.Stat(arg); err == nil {
		return r.resolvePath(arg)
	}

	if !hasMeta(arg) {
		logging.Warn(subsystem, "path does not exist: %s", arg)
		return nil
	}

	matches, err := doublestar.FilepathGlob(arg)
	if err != nil {
		return &ResolutionError{Args: []string{arg}, Reason: "invalid glob pattern", Err: err}
	}
	if len(matches) == 0 {
		logging.Warn(subsystem, "pattern matched nothing: %s", arg)
	}
	for _, m := range matches {
		if err := r.resolvePath(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) resolvePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		logging.Warn(subsystem, "cannot access %s: %v", path, err)
		return nil
	}

	switch {
	case info.IsDir():
		return r.resolveDir(path)
	case IsManifest(path):
		return r.resolveManifest(path)
	default:
		r.addFile(path, nil)
		return nil
	}
}

func (r *resolver) resolveDir(dir string) error {
	index := filepath.Join(dir, IndexFileName)
	if _, err := os.Stat(index); err == nil {
		return r.resolveManifest(index)
	}

	pattern := "*.{safetensors,gguf}"
	if r.opts.Recursive {
		pattern = "**/*.{safetensors,gguf}"
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return &ResolutionError{Args: []string{dir}, Reason: "failed to scan directory", Err: err}
	}
	for _, m := range matches {
		r.addFile(filepath.Join(dir, filepath.FromSlash(m)), nil)
	}
	return nil
}

func (r *resolver) resolveManifest(path string) error {
	m, err := LoadManifest(path)
	if err != nil {
		return &ResolutionError{Args: []string{path}, Reason: "invalid index file", Err: err}
	}

	for _, shard := range m.Shards() {
		if _, err := os.Stat(shard); err != nil {
			if r.opts.RequireAllShards {
				return &ResolutionError{
					Args:   []string{path},
					Reason: fmt.Sprintf("shard %s referenced by index is missing", filepath.Base(shard)),
					Err:    err,
				}
			}
			logging.Warn(subsystem, "shard %s referenced by %s is missing", shard, path)
			continue
		}
		r.addFile(shard, m)
	}
	return nil
}

func (r *resolver) addFile(path string, m *Manifest) {
	clean := filepath.Clean(path)
	if i, ok := r.seen[clean]; ok {
		if r.sources[i].Manifest == nil && m != nil {
			r.sources[i].Manifest = m
		}
		return
	}

	format, err := formats.Detect(clean)
	if err != nil {
		logging.Warn(subsystem, "cannot read %s: %v", clean, err)
		return
	}
	if format == tensor.FormatUnknown {
		logging.Warn(subsystem, "skipping unsupported file: %s", clean)
		return
	}

	r.seen[clean] = len(r.sources)
	r.sources = append(r.sources, Source{Path: clean, Format: format, Manifest: m})
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
