// Package loader reads every resolved source and merges the results into a
// catalog.
//
// Headers are read concurrently with a bounded worker count. Records are
// then inserted strictly in source order, so the resulting catalog and any
// reported conflict are the same on every run.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tensorscope/internal/catalog"
	"tensorscope/internal/formats"
	"tensorscope/internal/source"
	"tensorscope/pkg/logging"
)

const subsystem = "Loader"

// DefaultConcurrency is the number of files read in parallel when Options
// does not say otherwise.
const DefaultConcurrency = 4

// ErrNoReadableSources is returned when every source failed to parse.
var ErrNoReadableSources = errors.New("none of the given files could be read")

// Policy decides what happens when a source cannot be parsed.
type Policy int

const (
	// PolicyStrict aborts the load on the first unreadable source.
	PolicyStrict Policy = iota
	// PolicyBestEffort skips unreadable sources and reports them.
	PolicyBestEffort
)

func (p Policy) String() string {
	switch p {
	case PolicyBestEffort:
		return "best-effort"
	default:
		return "strict"
	}
}

// ParsePolicy maps a config value to a Policy. The empty string is strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "best-effort", "besteffort", "best_effort":
		return PolicyBestEffort, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown failure policy %q (expected strict or best-effort)", s)
	}
}

// Options controls a load.
type Options struct {
	Policy Policy
	// Concurrency bounds parallel header reads. Zero means DefaultConcurrency.
	Concurrency int
	// IncludeMetadata adds file-level key/value metadata to the catalog.
	IncludeMetadata bool
}

// Report summarises a load.
type Report struct {
	Sources []source.Source
	// Loaded is the number of sources that contributed to the catalog.
	Loaded int
	// Skipped lists sources dropped under PolicyBestEffort.
	Skipped []*formats.FormatError
	// ManifestMismatches counts tensors found in a different shard than
	// their index file names.
	ManifestMismatches int
	Duration           time.Duration
}

// Load reads all sources and builds the catalog.
func Load(ctx context.Context, sources []source.Source, opts Options) (*catalog.Catalog, *Report, error) {
	start := time.Now()
	report := &Report{Sources: sources}

	listings, errs := readAll(ctx, sources, opts)
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		var fe *formats.FormatError
		if !errors.As(err, &fe) {
			fe = &formats.FormatError{Path: sources[i].Path, Format: sources[i].Format, Err: err}
		}
		if opts.Policy == PolicyStrict {
			return nil, report, fe
		}
		logging.Warn(subsystem, "skipping %s: %v", sources[i].Path, fe.Err)
		report.Skipped = append(report.Skipped, fe)
	}

	if len(sources) == 0 || len(report.Skipped) == len(sources) {
		return nil, report, ErrNoReadableSources
	}

	b := catalog.NewBuilder()
	for i, listing := range listings {
		if listing == nil {
			continue
		}
		if err := insertListing(b, sources, i, listing, opts, report); err != nil {
			return nil, report, err
		}
		report.Loaded++
	}

	cat := b.Finalize()
	report.Duration = time.Since(start)
	logging.Info(subsystem, "loaded %d tensors from %d file(s) in %s", cat.TensorCount(), report.Loaded, report.Duration.Round(time.Millisecond))
	return cat, report, nil
}

// readAll parses every source, at most opts.Concurrency at a time. Under the
// strict policy the first failure stops files that have not started yet.
func readAll(ctx context.Context, sources []source.Source, opts Options) ([]*formats.Listing, []error) {
	listings := make([]*formats.Listing, len(sources))
	errs := make([]error, len(sources))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			listing, err := readSource(src)
			if err != nil {
				errs[i] = err
				if opts.Policy == PolicyStrict {
					return err
				}
				return nil
			}
			listings[i] = listing
			return nil
		})
	}
	_ = g.Wait()

	return listings, errs
}

func readSource(src source.Source) (*formats.Listing, error) {
	reader, err := formats.ForFormat(src.Format)
	if err != nil {
		return nil, &formats.FormatError{Path: src.Path, Format: src.Format, Err: err}
	}
	logging.Debug(subsystem, "reading %s header from %s", src.Format, src.Path)
	return reader.List(src.Path)
}

func insertListing(b *catalog.Builder, sources []source.Source, i int, listing *formats.Listing, opts Options, report *Report) error {
	src := sources[i]

	for _, rec := range listing.Records {
		rec.SourceIndex = i
		if err := b.Insert(rec); err != nil {
			var conflict *catalog.NameConflictError
			if errors.As(err, &conflict) {
				if conflict.ExistingSource >= 0 && conflict.ExistingSource < len(sources) {
					conflict.ExistingFile = sources[conflict.ExistingSource].Path
				}
				conflict.IncomingFile = src.Path
				return conflict
			}
			return fmt.Errorf("failed to add tensor from %s: %w", src.Path, err)
		}

		if src.Manifest != nil {
			shard, ok := src.Manifest.ShardFor(rec.Name)
			switch {
			case !ok:
				logging.Debug(subsystem, "tensor %s in %s is not listed in %s", rec.Name, src.Path, src.Manifest.Path)
			case shard != src.Path:
				report.ManifestMismatches++
				logging.Warn(subsystem, "tensor %s found in %s but %s maps it to %s", rec.Name, src.Path, src.Manifest.Path, shard)
			}
		}
	}

	if opts.IncludeMetadata {
		for _, entry := range listing.Metadata {
			entry.SourceIndex = i
			if err := b.AddMetadata(entry); err != nil {
				return fmt.Errorf("failed to add metadata from %s: %w", src.Path, err)
			}
		}
	}

	logging.Debug(subsystem, "merged %d tensors and %d metadata entries from %s", len(listing.Records), len(listing.Metadata), src.Path)
	return nil
}
