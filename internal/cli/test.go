package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/harness"
)

// ScenarioReport is the outcome of one scenario file.
type ScenarioReport struct {
	File   string               `json:"file"`
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Steps  []harness.StepResult `json:"steps"`
	Errors []string             `json:"errors,omitempty"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run import scenarios against an in-memory store",
		Long: `Run import scenarios. Each scenario imports its documents in order into a
fresh in-memory store and checks the outcome of every step and the final graph.
The configured store is not used.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}
}

func runScenarios(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	reports := make([]ScenarioReport, 0, len(files))
	failed := 0
	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			code, exit, _ := classify(err)
			return fail(formatter, code, exit, err.Error(), map[string]string{"file": file}, err)
		}
		formatter.VerboseLog("running %s (%d steps)", scenario.Name, len(scenario.Steps))

		result, err := harness.Run(ctx, scenario)
		if err != nil {
			return fail(formatter, ErrCodeGeneric, ExitCommandError, err.Error(), map[string]string{"file": file}, err)
		}
		if !result.Pass {
			failed++
		}
		reports = append(reports, ScenarioReport{
			File:   file,
			Name:   scenario.Name,
			Pass:   result.Pass,
			Steps:  result.Steps,
			Errors: result.Errors,
		})
	}

	if opts.Format == "json" {
		if err := formatter.Success(reports); err != nil {
			return err
		}
	} else {
		var b strings.Builder
		for _, r := range reports {
			status := "PASS"
			if !r.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(&b, "%s %s (%s)\n", status, r.Name, r.File)
			for _, e := range r.Errors {
				fmt.Fprintf(&b, "    %s\n", strings.ReplaceAll(e, "\n", "\n    "))
			}
		}
		fmt.Fprintf(&b, "%d/%d scenarios passed", len(reports)-failed, len(reports))
		if err := formatter.Success(b.String()); err != nil {
			return err
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}
