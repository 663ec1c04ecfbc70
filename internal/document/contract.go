package document

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tracegraph/internal/ir"
)

// Field is one required (or optional) path below an element.
type Field struct {
	// Path is dotted and relative to the element.
	Path string

	// Optional fields may be absent; when present they are still checked.
	Optional bool

	// Repeated fields may be given more than once.
	Repeated bool

	// ID fields must be non-empty scalars.
	ID bool

	// OneOf restricts a scalar field to an enumerated set.
	OneOf []string
}

// Element is the contract of one document element.
type Element struct {
	Fields []Field

	// Only, when set, is the exhaustive list of allowed child names.
	Only []string
}

// Contract maps element names to their contracts. Walkers call Check on
// every element before reading from it, so a violation always surfaces as a
// StructuralError naming the full document path.
type Contract map[string]Element

// Check validates n against the contract of element. Fields are checked in
// declaration order and the first violation is returned.
func (c Contract) Check(element string, n Node) error {
	rule, ok := c[element]
	if !ok {
		return fmt.Errorf("contract: no rules for element %q", element)
	}
	if !n.Exists() {
		return ir.NewMissing(n.Path())
	}
	if n.IsList() {
		return ir.NewMultiple(n.Path())
	}

	if len(rule.Only) > 0 {
		for _, k := range n.Keys() {
			if !slices.Contains(rule.Only, k) {
				return ir.NewInvalid(n.Get(k).Path(),
					fmt.Sprintf("unexpected element %s, allowed: %s", k, strings.Join(rule.Only, ", ")))
			}
		}
	}

	for _, f := range rule.Fields {
		if err := checkField(n, f); err != nil {
			return err
		}
	}
	return nil
}

func checkField(n Node, f Field) error {
	segs := strings.Split(f.Path, ".")
	cur := n
	for i, seg := range segs {
		cur = cur.Get(seg)
		if !cur.Exists() {
			if f.Optional {
				return nil
			}
			return ir.NewMissing(cur.Path())
		}
		last := i == len(segs)-1
		if cur.IsList() && (!last || !f.Repeated) {
			return ir.NewMultiple(cur.Path())
		}
	}

	for _, item := range cur.Items() {
		if f.ID {
			s, ok := item.Scalar()
			if !ok || ir.NormalizeID(s) == "" {
				return ir.NewEmpty(item.Path())
			}
		}
		if len(f.OneOf) > 0 {
			s, _ := item.Scalar()
			if !slices.Contains(f.OneOf, s) {
				return ir.NewInvalid(item.Path(),
					fmt.Sprintf("got %q, allowed: %s", s, strings.Join(f.OneOf, ", ")))
			}
		}
	}
	return nil
}
