package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wlgen/internal/codegen"
	"github.com/roach88/wlgen/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Interfaces int                        `json:"interfaces"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectOptions{}

	cmd := &cobra.Command{
		Use:   "validate [protocol.xml...]",
		Short: "Check protocols without writing any files",
		Long: `Parse and assemble the protocol documents and report every problem that
would stop generation or produce code that does not compile: duplicate
interface names, references to undefined interfaces or enums, unknown
argument types and implemented interfaces no protocol defines.

Unlike generate, validate reports all problems at once.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, opts, args, cmd)
		},
	}

	bindProjectFlags(cmd, opts)
	return cmd
}

func runValidate(rootOpts *RootOptions, opts *ProjectOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	logger := newLogger(rootOpts, cmd.ErrOrStderr())

	project, err := LoadProject(opts, args, logger)
	if err != nil {
		return loadFailure(formatter, err)
	}

	errs := ValidateProject(project)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}
	return outputValidateSuccess(formatter, project.Registry.Len())
}

// ValidateProject returns every diagnostic for a loaded project. Duplicate
// names are skipped when the configuration allows them. A generation
// failure the validator did not anticipate is reported last.
func ValidateProject(project *Project) []compiler.ValidationError {
	var errs []compiler.ValidationError
	for _, v := range compiler.Validate(project.Registry, project.Implemented) {
		if v.Code == compiler.ErrDuplicateInterface && project.Config.AllowDuplicates {
			continue
		}
		errs = append(errs, v)
	}

	if len(errs) == 0 {
		if _, err := codegen.Generate(project.Registry, project.Implemented, codegenOptions(project.Config)); err != nil {
			errs = append(errs, compiler.ValidationError{
				Field:   "generate",
				Message: err.Error(),
				Code:    ErrorCode(err),
			})
		}
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, interfaces int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Interfaces: interfaces})
	}

	fmt.Fprintf(formatter.Writer, "✓ All protocols valid (%d interface(s))\n", interfaces)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:     errs[0].Code,
				Message:  errs[0].Message,
				Location: errs[0].Field,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	items := make([]CLIError, len(errs))
	for i, err := range errs {
		items[i] = CLIError{Code: err.Code, Message: err.Message, Location: err.Field}
	}
	_ = formatter.Errors("Validation failed", items)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
