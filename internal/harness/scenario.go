package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines an import scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are imported in order into the same store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the graph after the last step.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is the fixed import run id. Default: "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Step imports one document.
type Step struct {
	// Document is the document path, relative to the scenario file.
	Document string `yaml:"document"`

	// Expect describes the import outcome. If nil, the import must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	Outcome string `yaml:"outcome"`

	// Path is the expected StructuralError path (structural only).
	Path string `yaml:"path,omitempty"`

	// ID is the expected unresolved identifier (referential only).
	ID string `yaml:"id,omitempty"`

	// Counts are checked only when set.
	VerticesInserted *int `yaml:"vertices_inserted,omitempty"`
	EdgesInserted    *int `yaml:"edges_inserted,omitempty"`
	Connections      *int `yaml:"connections,omitempty"`
}

// Outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeStructural  = "structural"
	OutcomeReferential = "referential"
)

// VertexRef names a vertex by kind and canonical URI.
type VertexRef struct {
	Kind string `yaml:"kind"`
	URI  string `yaml:"uid"`
}

// Assertion validates the final graph.
type Assertion struct {
	Type string `yaml:"type"`

	// Kind and URI select the vertex (vertex_exists, vertex_absent).
	Kind string `yaml:"kind,omitempty"`
	URI  string `yaml:"uid,omitempty"`

	// Expect contains expected vertex fields by their stored name
	// (data_provider, transaction_flow, external_id, dummy, ...).
	// Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Relation, From and To select the edge (edge_exists).
	Relation string     `yaml:"relation,omitempty"`
	From     *VertexRef `yaml:"from,omitempty"`
	To       *VertexRef `yaml:"to,omitempty"`

	// Flow is the expected edge flow tag (edge_exists, optional).
	Flow string `yaml:"flow,omitempty"`

	// Count is the expected total (vertex_count, edge_count, import_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertVertexExists = "vertex_exists"
	AssertVertexAbsent = "vertex_absent"
	AssertEdgeExists   = "edge_exists"
	AssertVertexCount  = "vertex_count"
	AssertEdgeCount    = "edge_count"
	AssertImportCount  = "import_count"
	AssertEdgesResolve = "edges_resolvable"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and document paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, step := range scenario.Steps {
		if step.Document != "" && !filepath.IsAbs(step.Document) {
			scenario.Steps[i].Document = filepath.Join(base, step.Document)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Document == "" {
			return fmt.Errorf("step %d: document is required", i)
		}
		if step.Expect == nil {
			continue
		}
		switch step.Expect.Outcome {
		case "":
			s.Steps[i].Expect.Outcome = OutcomeOK
		case OutcomeOK, OutcomeStructural, OutcomeReferential:
		default:
			return fmt.Errorf("step %d: unknown outcome %q", i, step.Expect.Outcome)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertVertexExists, AssertVertexAbsent:
		if a.Kind == "" || a.URI == "" {
			return errors.New("kind and uid are required")
		}
	case AssertEdgeExists:
		if a.Relation == "" || a.From == nil || a.To == nil {
			return errors.New("relation, from and to are required")
		}
	case AssertVertexCount, AssertEdgeCount, AssertImportCount, AssertEdgesResolve:
	case "":
		return errors.New("type is required")
	default:
		return errors.New("unknown assertion type")
	}
	return nil
}
