package catalog

import (
	"sort"
	"strings"

	"tensorscope/internal/tensor"
)

// Kind tells what a Node holds.
type Kind int

const (
	KindGroup Kind = iota
	KindTensor
	KindMetadata
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindTensor:
		return "tensor"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// MetadataGroupName is the display name of the synthetic metadata group.
const MetadataGroupName = "Metadata"

// Node is one element of the tree. Groups own their children exclusively;
// there are no parent pointers.
type Node struct {
	name     string
	path     string
	kind     Kind
	children map[string]*Node

	record *tensor.Record
	meta   *tensor.MetadataEntry

	tensorCount int
	totalBytes  uint64
	parameters  uint64
}

func newGroup(name, path string) *Node {
	return &Node{name: name, path: path, kind: KindGroup, children: make(map[string]*Node)}
}

// Name is the node's own segment.
func (n *Node) Name() string { return n.name }

// Path is the full dotted name from the root. The root's path is "".
func (n *Node) Path() string { return n.path }

func (n *Node) Kind() Kind { return n.kind }

// IsGroup reports whether the node can have children.
func (n *Node) IsGroup() bool { return n.kind == KindGroup }

// Record returns the tensor of a KindTensor node, nil otherwise.
func (n *Node) Record() *tensor.Record { return n.record }

// Metadata returns the entry of a KindMetadata node, nil otherwise.
func (n *Node) Metadata() *tensor.MetadataEntry { return n.meta }

// Len returns the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// Child returns the direct child with the given segment, or nil.
func (n *Node) Child(segment string) *Node { return n.children[segment] }

// Children returns the direct children in natural order. The slice is freshly
// allocated on every call. Metadata keys keep their dots, so they are
// compared segment by segment.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return ComparePaths(out[i].name, out[j].name) < 0
	})
	return out
}

// TensorCount is the number of tensor leaves at or below the node.
func (n *Node) TensorCount() int { return n.tensorCount }

// TotalBytes is the summed byte size of the tensor leaves at or below the node.
func (n *Node) TotalBytes() uint64 { return n.totalBytes }

// Parameters is the summed element count of the tensor leaves at or below
// the node.
func (n *Node) Parameters() uint64 { return n.parameters }

// finalize recomputes aggregates bottom-up.
func (n *Node) finalize() {
	switch n.kind {
	case KindTensor:
		n.tensorCount = 1
		n.totalBytes = n.record.ByteSize
		n.parameters = n.record.Elements()
	case KindMetadata:
		n.tensorCount, n.totalBytes, n.parameters = 0, 0, 0
	default:
		n.tensorCount, n.totalBytes, n.parameters = 0, 0, 0
		for _, c := range n.children {
			c.finalize()
			n.tensorCount += c.tensorCount
			n.totalBytes += c.totalBytes
			n.parameters += c.parameters
		}
	}
}

// anySource returns the source index of some tensor at or below n, or -1.
func (n *Node) anySource() int {
	if n.record != nil {
		return n.record.SourceIndex
	}
	for _, c := range n.Children() {
		if s := c.anySource(); s >= 0 {
			return s
		}
	}
	return -1
}

// Catalog is the finalized, read-only tree.
type Catalog struct {
	// Root is the tensor tree. Its own row is never displayed.
	Root *Node
	// Metadata groups file-level key/value metadata. Nil when no source
	// had any.
	Metadata *Node
}

// TensorCount is the number of tensors in the catalog.
func (c *Catalog) TensorCount() int { return c.Root.tensorCount }

// TotalBytes is the byte size of all tensors.
func (c *Catalog) TotalBytes() uint64 { return c.Root.totalBytes }

// Parameters is the element count of all tensors.
func (c *Catalog) Parameters() uint64 { return c.Root.parameters }

// Find looks up a tensor-tree node by its dotted path. The empty path is
// the root.
func (c *Catalog) Find(path string) *Node {
	n := c.Root
	if path == "" {
		return n
	}
	for _, seg := range strings.Split(path, ".") {
		if n = n.children[seg]; n == nil {
			return nil
		}
	}
	return n
}

// Tensors returns every tensor record in natural tree order.
func (c *Catalog) Tensors() []*tensor.Record {
	out := make([]*tensor.Record, 0, c.Root.tensorCount)
	c.Walk(func(n *Node, _ int) bool {
		if n.record != nil {
			out = append(out, n.record)
		}
		return true
	})
	return out
}

// Walk visits the tensor tree in pre-order, children in natural order,
// starting with the root's children at depth 0. Returning false from fn
// skips the node's subtree.
func (c *Catalog) Walk(fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		for _, child := range n.Children() {
			if fn(child, depth) && child.IsGroup() {
				visit(child, depth+1)
			}
		}
	}
	visit(c.Root, 0)
}
