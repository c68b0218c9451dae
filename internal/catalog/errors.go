package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName is returned for a tensor name that is empty or contains
	// an empty segment ("a..b", ".a", "a.").
	ErrEmptyName = errors.New("empty tensor name segment")

	// ErrFinalized is returned when a Builder is used after Finalize.
	ErrFinalized = errors.New("catalog already finalized")
)

// ConflictKind classifies a NameConflictError.
type ConflictKind int

const (
	// ConflictDuplicate: the tensor name already exists as a tensor.
	ConflictDuplicate ConflictKind = iota
	// ConflictLeafIsGroupPath: a prefix of the name is already a tensor, so
	// it cannot become a group.
	ConflictLeafIsGroupPath
	// ConflictGroupIsLeafPath: the name is already a group, so it cannot
	// hold a tensor.
	ConflictGroupIsLeafPath
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictDuplicate:
		return "duplicate tensor"
	case ConflictLeafIsGroupPath:
		return "tensor used as group"
	case ConflictGroupIsLeafPath:
		return "group used as tensor"
	default:
		return "unknown conflict"
	}
}

// NameConflictError reports a tensor that cannot be merged into the tree.
type NameConflictError struct {
	// Name is the full name of the tensor being inserted.
	Name string
	// Path is the node the conflict happened at. It equals Name except for
	// ConflictLeafIsGroupPath, where it is the prefix that is a tensor.
	Path string
	Kind ConflictKind

	// Source indexes of the node already in the tree and of the incoming
	// record. ExistingSource is -1 when unknown.
	ExistingSource int
	IncomingSource int

	// File paths, filled in by callers that know them.
	ExistingFile string
	IncomingFile string
}

func (e *NameConflictError) Error() string {
	var msg string
	switch e.Kind {
	case ConflictLeafIsGroupPath:
		msg = fmt.Sprintf("name conflict: cannot insert %q: %q is already a tensor", e.Name, e.Path)
	case ConflictGroupIsLeafPath:
		msg = fmt.Sprintf("name conflict: cannot insert tensor %q: %q is already a group", e.Name, e.Path)
	default:
		msg = fmt.Sprintf("name conflict: duplicate tensor %q", e.Name)
	}

	switch {
	case e.ExistingFile != "" || e.IncomingFile != "":
		return fmt.Sprintf("%s (existing in %s, incoming from %s)", msg, orUnknown(e.ExistingFile), orUnknown(e.IncomingFile))
	case e.ExistingSource >= 0:
		return fmt.Sprintf("%s (sources #%d and #%d)", msg, e.ExistingSource, e.IncomingSource)
	default:
		return msg
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown file"
	}
	return s
}
