package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/wlgen/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wlgen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "wlgen",
		Version: ir.ToolVersion,
		Short:   "wlgen - Wayland protocol compiler",
		Long: `Compile Wayland protocol XML into C++ server scaffolding.

wlgen reads protocol documents in order, numbers every interface by first
appearance, and emits three coupled artifacts: type declarations, request
dispatch tables, and event sending routines.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger returns a text logger on w: Debug level with --verbose, Info
// otherwise.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}
}

// loadFailure reports a project load error and returns the matching exit
// error.
func loadFailure(formatter *OutputFormatter, err error) error {
	e := CLIError{Code: ErrorCode(err), Message: err.Error()}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		e.Message = loadErr.Message
		e.Location = loadErr.Where()
	}
	_ = formatter.Error(e.Code, e.Message, e.Location)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", e.Code, e), nil)
}
