package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/siddur/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Segments int                        `json:"segments,omitempty"`
	Groups   int                        `json:"groups,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [registry-dir]",
		Short: "Validate a segment registry",
		Long: `Validate a CUE segment registry without building anything.

Reports every problem found: unknown condition fields, values of the
wrong kind, unknown services, duplicate keys and group cycles. Defaults to
the --registry directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Registry
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	src, err := compiler.LoadDir(dir)
	if err != nil {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			// Broken CUE is a validation failure; a missing or empty
			// directory is a command error.
			if isContentError(loadErr.Code) {
				return outputValidationErrors(f, []compiler.ValidationError{{
					Field:   "load",
					Message: loadErr.Message,
					Code:    loadErr.Code,
					Line:    lineOf(loadErr),
				}})
			}
			return f.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return f.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
	}

	f.VerboseLog("Parsed %d segment(s) and %d group(s) in %s", len(src.Segments), len(src.Groups), dir)

	if errs := compiler.Validate(src); len(errs) > 0 {
		return outputValidationErrors(f, errs)
	}

	result := ValidationResult{Valid: true, Segments: len(src.Segments), Groups: len(src.Groups)}
	if f.IsJSON() {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "✓ Registry valid (%d segments, %d groups)\n", result.Segments, result.Groups)
	return nil
}

func isContentError(code string) bool {
	switch code {
	case compiler.ErrCodeGeneric, compiler.ErrCodeLoadFailed, compiler.ErrCodeBuildFailed:
		return true
	}
	return false
}

func lineOf(e *compiler.LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidationErrors outputs every validation error and returns
// ExitFailure.
func outputValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	failure.Reported = true

	if f.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := writeJSON(f.Writer, response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(f.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(f.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return failure
}
