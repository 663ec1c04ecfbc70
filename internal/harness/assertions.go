package harness

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/tracegraph/internal/ir"
)

// Graph is the read side of the store assertions run against.
// memstore.Store implements it.
type Graph interface {
	Vertex(key string) (ir.Vertex, bool)
	Vertices() []ir.Vertex
	Edges() []ir.Edge
	Imports() []ir.ImportRun
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against g and returns the
// failure messages in assertion order.
func EvaluateAssertions(assertions []Assertion, g Graph) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(a, g); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(a Assertion, g Graph) error {
	switch a.Type {
	case AssertVertexExists:
		return assertVertexExists(a, g)
	case AssertVertexAbsent:
		if _, ok := g.Vertex(refKey(VertexRef{Kind: a.Kind, URI: a.URI})); ok {
			return &AssertionError{Type: a.Type, Expected: "no " + describe(a.Kind, a.URI), Actual: "present"}
		}
		return nil
	case AssertEdgeExists:
		return assertEdgeExists(a, g)
	case AssertVertexCount:
		return assertCount(a, len(g.Vertices()))
	case AssertEdgeCount:
		return assertCount(a, len(g.Edges()))
	case AssertImportCount:
		return assertCount(a, len(g.Imports()))
	case AssertEdgesResolve:
		return assertEdgesResolve(a, g)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func refKey(r VertexRef) string {
	return ir.VertexKey(ir.Kind(r.Kind), ir.URI(r.URI))
}

func describe(kind, uri string) string {
	return kind + " " + uri
}

func assertVertexExists(a Assertion, g Graph) error {
	v, ok := g.Vertex(refKey(VertexRef{Kind: a.Kind, URI: a.URI}))
	if !ok {
		return &AssertionError{Type: a.Type, Expected: describe(a.Kind, a.URI), Actual: "not found"}
	}
	if len(a.Expect) == 0 {
		return nil
	}

	fields, err := vertexFields(v)
	if err != nil {
		return err
	}
	var mismatches []string
	for _, name := range sortedNames(a.Expect) {
		want := a.Expect[name]
		got, present := fields[name]
		if !present {
			got = zeroOf(want)
		}
		if !valuesEqual(got, want) {
			mismatches = append(mismatches, fmt.Sprintf("%s=%v (want %v)", name, got, want))
		}
	}
	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s with %v", describe(a.Kind, a.URI), a.Expect),
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}

func assertEdgeExists(a Assertion, g Graph) error {
	key := ir.EdgeKey(ir.Relation(a.Relation), refKey(*a.From), refKey(*a.To))
	for _, e := range g.Edges() {
		if e.Key != key {
			continue
		}
		if a.Flow != "" && string(e.Flow) != a.Flow {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s edge tagged %s", a.Relation, a.Flow),
				Actual:   fmt.Sprintf("tagged %q", e.Flow),
			}
		}
		return nil
	}
	return &AssertionError{
		Type: a.Type,
		Expected: fmt.Sprintf("%s edge %s -> %s", a.Relation,
			describe(a.From.Kind, a.From.URI), describe(a.To.Kind, a.To.URI)),
		Actual: "not found",
	}
}

func assertEdgesResolve(a Assertion, g Graph) error {
	var dangling []string
	for _, e := range g.Edges() {
		for _, end := range []string{e.From, e.To} {
			if _, ok := g.Vertex(end); !ok {
				dangling = append(dangling, fmt.Sprintf("%s %s -> %s", e.Relation, e.From, end))
			}
		}
	}
	if len(dangling) > 0 {
		return &AssertionError{Type: a.Type, Expected: "every edge endpoint stored", Actual: strings.Join(dangling, "; ")}
	}
	return nil
}

func assertCount(a Assertion, got int) error {
	if got != a.Count {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Count), Actual: fmt.Sprint(got)}
	}
	return nil
}

// vertexFields returns v keyed by its JSON field names.
func vertexFields(v ir.Vertex) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal vertex: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal vertex: %w", err)
	}
	return fields, nil
}

// zeroOf is the value an omitempty field has when absent.
func zeroOf(want any) any {
	switch want.(type) {
	case bool:
		return false
	case string:
		return ""
	}
	return nil
}

// valuesEqual compares YAML-parsed expectations with JSON-decoded values,
// which disagree on numeric types.
func valuesEqual(actual, expected any) bool {
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
