package cli

import (
	"errors"
	"os"

	"github.com/roach88/tracegraph/internal/ir"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Document or config file not found
	ErrCodeConfig      = "E010" // Invalid configuration
	ErrCodeStructural  = "E201" // Document violates the schema contract
	ErrCodeReferential = "E202" // Reference resolves nowhere
	ErrCodeStore       = "E301" // Store unreachable or write failed
)

// classify maps an import error to its code, exit code and details.
func classify(err error) (code string, exit int, details any) {
	var se *ir.StructuralError
	if errors.As(err, &se) {
		return ErrCodeStructural, ExitFailure, map[string]string{
			"path":   se.Path,
			"reason": string(se.Reason),
		}
	}
	var re *ir.ReferentialError
	if errors.As(err, &re) {
		return ErrCodeReferential, ExitFailure, map[string]string{
			"kind":     string(re.Kind),
			"id":       re.ID,
			"uid":      string(re.URI),
			"referrer": re.Referrer,
		}
	}
	if errors.Is(err, os.ErrNotExist) {
		return ErrCodeNotFound, ExitCommandError, nil
	}
	return ErrCodeStore, ExitCommandError, nil
}

// fail prints err and returns it as an ExitError.
func fail(f *OutputFormatter, code string, exit int, message string, details any, err error) error {
	if outErr := f.Error(code, message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(exit, message, err)
}
