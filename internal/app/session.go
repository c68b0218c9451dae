package app

import (
	"context"
	"fmt"
	"path/filepath"

	"tensorscope/internal/catalog"
	"tensorscope/internal/config"
	"tensorscope/internal/loader"
	"tensorscope/internal/source"
	"tensorscope/pkg/logging"
)

// Session is a loaded catalog together with where it came from.
type Session struct {
	Title   string
	Sources []source.Source
	Catalog *catalog.Catalog
	Report  *loader.Report
}

// OpenSession resolves paths and loads every resulting file into one
// catalog using the explorer settings.
func OpenSession(ctx context.Context, paths []string, settings config.Config) (*Session, error) {
	sources, err := source.Resolve(paths, source.Options{
		Recursive:        config.BoolValue(settings.Explorer.Recursive),
		RequireAllShards: config.BoolValue(settings.Explorer.RequireAllShards),
	})
	if err != nil {
		return nil, err
	}

	policy, err := loader.ParsePolicy(settings.Explorer.FailurePolicy)
	if err != nil {
		return nil, err
	}

	logging.Debug("Session", "Loading %d file(s) with %s policy", len(sources), policy)
	cat, report, err := loader.Load(ctx, sources, loader.Options{
		Policy:          policy,
		Concurrency:     settings.Explorer.Concurrency,
		IncludeMetadata: config.BoolValue(settings.Explorer.ShowMetadata),
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Title:   sessionTitle(paths, sources),
		Sources: sources,
		Catalog: cat,
		Report:  report,
	}, nil
}

// sessionTitle names a single file, a sharded checkpoint by its index file,
// or otherwise counts the files.
func sessionTitle(paths []string, sources []source.Source) string {
	if len(sources) == 1 {
		return filepath.Base(sources[0].Path)
	}
	if m := sources[0].Manifest; m != nil {
		shared := true
		for _, s := range sources[1:] {
			if s.Manifest == nil || s.Manifest.Path != m.Path {
				shared = false
				break
			}
		}
		if shared {
			return filepath.Base(filepath.Dir(m.Path))
		}
	}
	if len(paths) == 1 {
		return filepath.Base(filepath.Clean(paths[0]))
	}
	return fmt.Sprintf("%d files", len(sources))
}
