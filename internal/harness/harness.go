package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/importer"
	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/memstore"
	"github.com/roach88/tracegraph/internal/testutil"
)

// Run executes a scenario against a fresh in-memory store.
//
// Document rejections are step outcomes, not errors. Run returns an error
// only when the harness itself cannot proceed.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	mem := memstore.New()
	im, err := importer.New(mem,
		importer.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create importer: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, stepErr := runStep(ctx, im, step)
		result.Steps = append(result.Steps, sr)

		slog.Debug("scenario step",
			"scenario", scenario.Name,
			"step", i,
			"document", sr.Document,
			"outcome", sr.Outcome,
		)
		for _, msg := range checkExpect(step.Expect, sr, stepErr) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, sr.Document, msg))
		}
	}

	for _, msg := range EvaluateAssertions(scenario.Assertions, mem) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep imports one document. The returned error is the import's
// rejection, already recorded in the step result.
func runStep(ctx context.Context, im *importer.Importer, step Step) (StepResult, error) {
	sr := StepResult{Document: filepath.Base(step.Document)}

	report, err := importDocument(ctx, im, step.Document)
	if err != nil {
		sr.Outcome = outcomeOf(err)
		sr.Error = err.Error()
		return sr, err
	}
	sr.Outcome = OutcomeOK
	sr.Stats = &report.Stats
	return sr, nil
}

func importDocument(ctx context.Context, im *importer.Importer, path string) (*importer.Report, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, doc)
}

func outcomeOf(err error) string {
	switch {
	case ir.IsStructural(err):
		return OutcomeStructural
	case ir.IsReferential(err):
		return OutcomeReferential
	default:
		return "error"
	}
}

// checkExpect compares a step result with its expectation. A nil
// expectation means the import must succeed.
func checkExpect(exp *Expect, sr StepResult, typed error) []string {
	want := OutcomeOK
	if exp != nil {
		want = exp.Outcome
	}
	if sr.Outcome != want {
		msg := fmt.Sprintf("outcome %s, want %s", sr.Outcome, want)
		if sr.Error != "" {
			msg += ": " + sr.Error
		}
		return []string{msg}
	}
	if exp == nil {
		return nil
	}

	var errs []string
	switch want {
	case OutcomeStructural:
		var se *ir.StructuralError
		if exp.Path != "" && (!errors.As(typed, &se) || se.Path != exp.Path) {
			errs = append(errs, fmt.Sprintf("structural error %q, want path %s", sr.Error, exp.Path))
		}
	case OutcomeReferential:
		var re *ir.ReferentialError
		if exp.ID != "" && (!errors.As(typed, &re) || re.ID != exp.ID) {
			errs = append(errs, fmt.Sprintf("referential error %q, want id %s", sr.Error, exp.ID))
		}
	case OutcomeOK:
		errs = append(errs, checkCount("vertices_inserted", exp.VerticesInserted, sr.Stats.VerticesInserted)...)
		errs = append(errs, checkCount("edges_inserted", exp.EdgesInserted, sr.Stats.EdgesInserted)...)
		errs = append(errs, checkCount("connections", exp.Connections, sr.Stats.Connections)...)
	}
	return errs
}

func checkCount(name string, want *int, got int) []string {
	if want == nil || *want == got {
		return nil
	}
	return []string{fmt.Sprintf("%s = %d, want %d", name, got, *want)}
}
