package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"tensorscope/internal/tensor"
)

// Builder assembles a Catalog. It is not safe for concurrent use.
type Builder struct {
	root      *Node
	meta      *Node
	finalized *Catalog
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{root: newGroup("", "")}
}

// Insert merges one tensor record into the tree. A failed insert leaves the
// tree unchanged.
func (b *Builder) Insert(rec tensor.Record) error {
	if b.finalized != nil {
		return ErrFinalized
	}
	segments := strings.Split(rec.Name, ".")
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("%w: %q", ErrEmptyName, rec.Name)
		}
	}

	if err := b.checkInsert(rec, segments); err != nil {
		return err
	}

	n := b.root
	for i, seg := range segments[:len(segments)-1] {
		child := n.children[seg]
		if child == nil {
			child = newGroup(seg, strings.Join(segments[:i+1], "."))
			n.children[seg] = child
		}
		n = child
	}

	last := segments[len(segments)-1]
	r := rec
	n.children[last] = &Node{
		name:   last,
		path:   rec.Name,
		kind:   KindTensor,
		record: &r,
	}
	return nil
}

// checkInsert walks the existing part of the path and reports any conflict
// before the tree is touched.
func (b *Builder) checkInsert(rec tensor.Record, segments []string) error {
	n := b.root
	for i, seg := range segments {
		child := n.children[seg]
		if child == nil {
			return nil
		}
		last := i == len(segments)-1
		switch {
		case !last && !child.IsGroup():
			return &NameConflictError{
				Name:           rec.Name,
				Path:           child.path,
				Kind:           ConflictLeafIsGroupPath,
				ExistingSource: child.record.SourceIndex,
				IncomingSource: rec.SourceIndex,
			}
		case last && child.IsGroup():
			return &NameConflictError{
				Name:           rec.Name,
				Path:           child.path,
				Kind:           ConflictGroupIsLeafPath,
				ExistingSource: child.anySource(),
				IncomingSource: rec.SourceIndex,
			}
		case last:
			return &NameConflictError{
				Name:           rec.Name,
				Path:           child.path,
				Kind:           ConflictDuplicate,
				ExistingSource: child.record.SourceIndex,
				IncomingSource: rec.SourceIndex,
			}
		}
		n = child
	}
	return nil
}

// AddMetadata files a key/value entry under the metadata group. Keys are not
// split. An entry repeated with the same value by another source is kept
// once; a differing value is added under "<key> [#<source>]".
func (b *Builder) AddMetadata(entry tensor.MetadataEntry) error {
	if b.finalized != nil {
		return ErrFinalized
	}
	if b.meta == nil {
		b.meta = newGroup(MetadataGroupName, "")
	}

	key := entry.Key
	if existing := b.meta.children[key]; existing != nil {
		if existing.meta.Value == entry.Value {
			return nil
		}
		key = entry.Key + " [#" + strconv.Itoa(entry.SourceIndex) + "]"
		if b.meta.children[key] != nil {
			return nil
		}
	}

	e := entry
	b.meta.children[key] = &Node{
		name: key,
		path: key,
		kind: KindMetadata,
		meta: &e,
	}
	return nil
}

// Finalize computes all aggregates and returns the read-only catalog. The
// builder rejects further input afterwards; calling Finalize again returns
// the same catalog.
func (b *Builder) Finalize() *Catalog {
	if b.finalized != nil {
		return b.finalized
	}
	b.root.finalize()
	if b.meta != nil {
		b.meta.finalize()
	}
	b.finalized = &Catalog{Root: b.root, Metadata: b.meta}
	return b.finalized
}
