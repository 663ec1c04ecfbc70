package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tracegraph/internal/importer"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a document without writing to the store",
		Long: `Check a document against its schema contract and resolve its references
without writing anything.

References to entities from earlier imports are looked up in the configured
store, so validate needs the same store flags as an import.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
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

		summary, err := im.Validate(ctx, doc)
		if err != nil {
			code, exit, details := classify(err)
			return fail(formatter, code, exit, err.Error(), details, err)
		}

		if opts.Format == "json" {
			return formatter.Success(summary)
		}
		return formatter.Success(fmt.Sprintf(
			"Document valid: provider %s (%s), %d vertices, %d edges, %d batches planned",
			summary.Provider, summary.Shape, summary.Vertices, summary.Edges, summary.Batches))
	})
}
