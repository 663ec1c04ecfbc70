// Package document loads supply-chain trace documents into a generic tree
// and checks them against a declarative schema contract.
//
// Every loader produces the same shape: map[string]any for elements,
// []any for repeated elements, and string, json.Number, bool or nil for
// leaves. Walkers read the tree through Node, which carries the dotted
// document path used in StructuralErrors.
package document

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ContentKey holds the text of an element that also has attributes or
// children.
const ContentKey = "content"

// Node is a value at a document path.
type Node struct {
	path   string
	value  any
	exists bool
}

// Root wraps a loaded document.
func Root(doc any) Node {
	return Node{value: doc, exists: doc != nil}
}

// At wraps a value found at path.
func At(path string, v any) Node {
	return Node{path: path, value: v, exists: true}
}

// Path returns the dotted document path, e.g. "OriginTrailExport.DataProvider".
func (n Node) Path() string {
	if n.path == "" {
		return "$"
	}
	return n.path
}

// Exists reports whether the node was present in the document.
func (n Node) Exists() bool {
	return n.exists
}

// Value returns the raw subtree.
func (n Node) Value() any {
	return n.value
}

// IsList reports whether the element was given more than once.
func (n Node) IsList() bool {
	_, ok := n.value.([]any)
	return ok
}

// Get returns the named child. Children of lists and leaves never exist.
func (n Node) Get(name string) Node {
	child := Node{path: joinPath(n.path, name)}
	if m, ok := n.value.(map[string]any); ok {
		if v, found := m[name]; found {
			child.value = v
			child.exists = true
		}
	}
	return child
}

// Lookup follows a dotted path of child names.
func (n Node) Lookup(dotted string) Node {
	cur := n
	for _, seg := range strings.Split(dotted, ".") {
		cur = cur.Get(seg)
	}
	return cur
}

// Items returns the node as a list: each element of a repeated element, or
// the node itself when it was given once. A missing node has no items.
func (n Node) Items() []Node {
	if !n.exists {
		return nil
	}
	list, ok := n.value.([]any)
	if !ok {
		return []Node{n}
	}
	out := make([]Node, len(list))
	for i, v := range list {
		out[i] = Node{path: fmt.Sprintf("%s[%d]", n.path, i), value: v, exists: true}
	}
	return out
}

// Keys returns the names of the node's children in sorted order.
func (n Node) Keys() []string {
	m, ok := n.value.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Scalar returns the text of a leaf. An element with attributes yields its
// content text. Lists and plain elements are not scalars.
func (n Node) Scalar() (string, bool) {
	switch v := n.value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case map[string]any:
		if c, ok := v[ContentKey]; ok {
			return At(n.path, c).Scalar()
		}
	}
	return "", false
}

// String returns the scalar text of the node, or "" when it has none.
func (n Node) String() string {
	s, _ := n.Scalar()
	return s
}

// Object returns the node as a map. Leaves are wrapped as {"content": leaf}
// so identifier sections always decode to a map.
func (n Node) Object() map[string]any {
	switch v := n.value.(type) {
	case map[string]any:
		return v
	case nil:
		return nil
	default:
		return map[string]any{ContentKey: v}
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
