// Package tree defines the uniform node structure every format adapter
// populates, so downstream consumers never branch on file formats.
//
// Nodes are constructed once per parse, are immutable after construction,
// and are owned exclusively by the parse result that produced them. IDs are
// dot-joined paths from the root and are unique within one result: sibling
// keys come either from a mapping's own key set or from positional "[i]"
// indices, so no two siblings can collide.
package tree

import (
	"strconv"
	"strings"

	"github.com/minghsu/npview/dtype"
)

// NodeType is a closed tag identifying what a node holds. It is decided
// once at construction time and never re-inferred by consumers.
type NodeType uint8

const (
	// Scalar is a leaf holding a single non-string value.
	Scalar NodeType = iota + 1
	// Array is a node derived from a decoded sequence. Usually a leaf
	// whose Value holds the (possibly sampled) slice; in the
	// array-of-records case it may also carry descriptive children.
	Array
	// Object is an internal node whose children come from a mapping's
	// ordered entries.
	Object
	// String is a leaf holding a text value.
	String
)

func (t NodeType) String() string {
	switch t {
	case Scalar:
		return "scalar"
	case Array:
		return "array"
	case Object:
		return "object"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// ArrayMeta describes the array a node was derived from. Size is the true
// element count, not the preview length.
type ArrayMeta struct {
	ElementType dtype.ElementType
	Shape       []int
	Size        int
}

// Entry is one ordered key/value pair of a mapping-like collaborator
// value. Collaborators hand the builder Entry slices, never Go maps, so
// iteration order is their declared order by construction.
type Entry struct {
	Key   string
	Value any
}

// Node is one node of the parse result tree.
type Node struct {
	// ID is the dot-joined path from the root, e.g. "b.c". Unique within
	// one parse result.
	ID string
	// Key is the last path segment.
	Key string
	// Value is the leaf payload; nil for internal nodes.
	Value any
	// Type is the node's construction-time kind.
	Type NodeType
	// Children are the ordered child nodes; empty for leaves.
	Children []*Node
	// Meta is set when the node was derived from an array.
	Meta *ArrayMeta
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

func joinPath(path []string) (id, key string) {
	if len(path) == 0 {
		return "", ""
	}

	return strings.Join(path, "."), path[len(path)-1]
}

// NewScalar builds a leaf from a single value. Strings become String
// nodes, everything else Scalar.
func NewScalar(path []string, v any) *Node {
	id, key := joinPath(path)
	typ := Scalar
	if _, ok := v.(string); ok {
		typ = String
	}

	return &Node{ID: id, Key: key, Value: v, Type: typ}
}

// NewArray builds a leaf from a decoded sequence, carrying the array's
// metadata. values may be a sampled preview; meta keeps the true size.
func NewArray(path []string, values any, meta *ArrayMeta) *Node {
	id, key := joinPath(path)

	return &Node{ID: id, Key: key, Value: values, Type: Array, Meta: meta}
}

// NewObject builds an internal node over already-built children.
func NewObject(path []string, children []*Node) *Node {
	id, key := joinPath(path)

	return &Node{ID: id, Key: key, Type: Object, Children: children}
}

// FromValue builds a node from a collaborator value by recursing on its
// capability, not on any decoder-specific type:
//
//   - []Entry (an ordered mapping) becomes an Object with one child per
//     entry, each child's ID being the parent path plus the entry key;
//   - []any of scalars becomes an Array leaf with Meta.Size set;
//   - []any containing nested structure becomes an Array node with
//     positional "[i]" children;
//   - anything else becomes a Scalar or String leaf.
//
// The construction is pure: same input, same tree.
func FromValue(path []string, v any) *Node {
	switch val := v.(type) {
	case []Entry:
		children := make([]*Node, 0, len(val))
		for _, e := range val {
			children = append(children, FromValue(append(path[:len(path):len(path)], e.Key), e.Value))
		}

		return NewObject(path, children)

	case []any:
		if flatSequence(val) {
			return NewArray(path, val, &ArrayMeta{Shape: []int{len(val)}, Size: len(val)})
		}

		children := make([]*Node, 0, len(val))
		for i, item := range val {
			key := "[" + strconv.Itoa(i) + "]"
			children = append(children, FromValue(append(path[:len(path):len(path)], key), item))
		}
		id, key := joinPath(path)

		return &Node{ID: id, Key: key, Type: Array, Children: children,
			Meta: &ArrayMeta{Shape: []int{len(val)}, Size: len(val)}}

	default:
		return NewScalar(path, v)
	}
}

// flatSequence reports whether every element is a plain scalar, i.e. the
// sequence can be shown as an array leaf instead of expanded per element.
func flatSequence(vals []any) bool {
	for _, v := range vals {
		switch v.(type) {
		case []Entry, []any:
			return false
		}
	}

	return true
}
