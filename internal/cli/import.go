package cli

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/document"
	"github.com/roach88/tracegraph/internal/importer"
)

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	doc, err := loadDocument(formatter, path)
	if err != nil {
		return err
	}

	return withBackend(ctx, opts, formatter, func(backend Backend) error {
		im, err := importer.New(backend)
		if err != nil {
			return fail(formatter, ErrCodeGeneric, ExitCommandError, err.Error(), nil, err)
		}

		slog.Info("importing document", "path", path)
		report, err := im.Import(ctx, doc)
		if err != nil {
			code, exit, details := classify(err)
			return fail(formatter, code, exit, err.Error(), details, err)
		}

		if opts.Format == "json" {
			return formatter.Success(report)
		}
		return formatter.Success(reportText{report})
	})
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loadDocument(f *OutputFormatter, path string) (any, error) {
	doc, err := document.Load(path)
	if err != nil {
		code, exit, details := classify(err)
		return nil, fail(f, code, exit, err.Error(), details, err)
	}
	f.VerboseLog("loaded %s", path)
	return doc, nil
}

// reportText renders a report for the text format.
type reportText struct {
	*importer.Report
}

func (r reportText) String() string {
	var b strings.Builder
	fmt.Fprintln(&b, r.Message)
	fmt.Fprintf(&b, "run:         %s\n", r.RunID)
	fmt.Fprintf(&b, "provider:    %s (%s)\n", r.Provider, r.Shape)
	fmt.Fprintf(&b, "vertices:    %d inserted, %d skipped\n", r.Stats.VerticesInserted, r.Stats.VerticesSkipped)
	fmt.Fprintf(&b, "edges:       %d inserted, %d skipped\n", r.Stats.EdgesInserted, r.Stats.EdgesSkipped)
	fmt.Fprintf(&b, "connections: %d\n", r.Stats.Connections)
	fmt.Fprintf(&b, "batches:     %d", len(r.Batches))
	for _, uri := range slices.Sorted(maps.Keys(r.Batches)) {
		fmt.Fprintf(&b, "\n  %s", uri)
		if r.Batches[uri].Dummy {
			b.WriteString(" (dummy)")
		}
	}
	if len(r.TransferEvents) > 0 {
		fmt.Fprintf(&b, "\ntransfers:   %d", len(r.TransferEvents))
	}
	return b.String()
}
