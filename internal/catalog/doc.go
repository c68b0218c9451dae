// Package catalog merges tensor records from any number of sources into one
// hierarchical namespace.
//
// Tensor names are split on "." and every segment but the last becomes a
// group. Groups hold their children in a map; enumeration order is always
// derived at read time through CompareSegments, so "layer.2" sorts before
// "layer.10".
//
// A Builder accepts records and metadata entries, rejects name conflicts, and
// produces a read-only Catalog from Finalize. Aggregates (tensor count, bytes,
// parameters) are computed once by Finalize and are only observable on the
// finalized Catalog, so they can never be stale.
package catalog
