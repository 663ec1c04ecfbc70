package harness

import "github.com/roach88/tracegraph/internal/importer"

// StepResult is the observed outcome of one step.
type StepResult struct {
	Document string          `json:"document"`
	Outcome  string          `json:"outcome"`
	Error    string          `json:"error,omitempty"`
	Stats    *importer.Stats `json:"stats,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step met its expectation and every assertion held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
