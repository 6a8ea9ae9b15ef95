package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/wlgen/internal/codegen"
	"github.com/roach88/wlgen/internal/compiler"
	"github.com/roach88/wlgen/internal/ir"
	"github.com/roach88/wlgen/internal/store"
)

// Artifact kinds, in write order.
const (
	KindDeclarations = "declarations"
	KindRequests     = "requests"
	KindEvents       = "events"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	ProjectOptions
	Check bool
}

// GenerateResult is the JSON payload of a successful generate.
// LayoutSeenIn is set when a changed layout matches an earlier run's, and
// names the earliest such run.
type GenerateResult struct {
	Interfaces    int                        `json:"interfaces"`
	Implemented   int                        `json:"implemented"`
	LayoutHash    string                     `json:"layout_hash"`
	Artifacts     []store.Artifact           `json:"artifacts"`
	RunID         string                     `json:"run_id,omitempty"`
	LayoutChanged bool                       `json:"layout_changed,omitempty"`
	LayoutSeenIn  string                     `json:"layout_seen_in,omitempty"`
	Warnings      []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [protocol.xml...]",
		Short: "Generate C++ server scaffolding from protocol XML",
		Long: `Generate the declarations header, request dispatch tables and event
routines for every interface in the given protocol documents.

Protocols named on the command line replace the configured list. Interfaces
are numbered in the order the documents are given, so the order matters.
With --check nothing is written; the command fails if any artifact on disk
differs from what would be generated.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, opts, args, cmd)
		},
	}

	bindProjectFlags(cmd, &opts.ProjectOptions)
	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "o", "", "directory for the generated files (keeps configured file names)")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record the run in this SQLite ledger")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "compare against existing files instead of writing")

	return cmd
}

func runGenerate(rootOpts *RootOptions, opts *GenerateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	logger := newLogger(rootOpts, cmd.ErrOrStderr())

	project, err := LoadProject(&opts.ProjectOptions, args, logger)
	if err != nil {
		return loadFailure(formatter, err)
	}
	reg := project.Registry

	if err := checkDuplicates(formatter, logger, reg, project.Config.AllowDuplicates); err != nil {
		return err
	}

	warnings := diagnostics(reg, project.Implemented)
	for _, w := range warnings {
		logger.Warn(w.Message, "code", w.Code, "field", w.Field)
	}

	out, err := codegen.Generate(reg, project.Implemented, codegenOptions(project.Config))
	if err != nil {
		code := ErrorCode(err)
		_ = formatter.Error(code, err.Error(), "")
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: generation aborted", code), err)
	}

	layoutHash, err := ir.LayoutHash(reg.Interfaces())
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), "")
		return WrapExitError(ExitCommandError, "computing layout hash", err)
	}

	paths := project.Config.OutputPaths()
	files := []struct {
		kind string
		path string
		data []byte
	}{
		{KindDeclarations, paths.Declarations, out.Declarations},
		{KindRequests, paths.Requests, out.Requests},
		{KindEvents, paths.Events, out.Events},
	}

	result := GenerateResult{
		Interfaces:  reg.Len(),
		Implemented: len(reg.Implemented(project.Implemented)),
		LayoutHash:  layoutHash,
		Warnings:    warnings,
	}

	if opts.Check {
		var stale []CLIError
		for _, f := range files {
			current, err := os.ReadFile(f.path)
			if err != nil || !bytes.Equal(current, f.data) {
				stale = append(stale, CLIError{Code: ErrCodeStale, Message: f.kind + " is out of date", Location: f.path})
			}
		}
		if len(stale) > 0 {
			_ = formatter.Errors("Generated files are out of date", stale)
			return NewExitError(ExitFailure, fmt.Sprintf("%d artifact(s) out of date", len(stale)))
		}
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ %d interface(s), generated files are up to date\n", result.Interfaces)
		return nil
	}

	for _, f := range files {
		if err := writeArtifact(f.path, f.data); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), f.path)
			return WrapExitError(ExitCommandError, fmt.Sprintf("%s: writing %s", ErrCodeWriteFailed, f.kind), err)
		}
		logger.Debug("wrote artifact", "kind", f.kind, "path", f.path, "bytes", len(f.data))
		result.Artifacts = append(result.Artifacts, store.Artifact{
			Kind: f.kind,
			Path: f.path,
			Hash: ir.ArtifactHash(f.data),
			Size: len(f.data),
		})
	}

	if ledger := project.Config.Resolve(project.Config.Ledger); ledger != "" {
		rec, err := recordRun(cmd.Context(), ledger, project, layoutHash, result.Artifacts)
		if err != nil {
			_ = formatter.Error(ErrCodeLedgerFailed, err.Error(), ledger)
			return WrapExitError(ExitCommandError, fmt.Sprintf("%s: recording run", ErrCodeLedgerFailed), err)
		}
		if rec.changed {
			attrs := []any{"run", rec.run.ID}
			if rec.seenIn != nil {
				attrs = append(attrs, "same_as_run", rec.seenIn.ID)
			}
			logger.Warn("wire layout changed since the previous run; rebuild clients against the new dispatch table", attrs...)
		}
		result.RunID = rec.run.ID
		result.LayoutChanged = rec.changed
		if rec.seenIn != nil {
			result.LayoutSeenIn = rec.seenIn.ID
		}
	}

	return outputGenerateSuccess(formatter, result)
}

// checkDuplicates fails on repeated interface names unless allowed, in
// which case each duplicate is logged.
func checkDuplicates(formatter *OutputFormatter, logger *slog.Logger, reg *compiler.Registry, allowed bool) error {
	dups := reg.Duplicates()
	if len(dups) == 0 {
		return nil
	}
	if allowed {
		for _, dup := range dups {
			logger.Warn(dup.Error(), "code", ErrCodeDuplicateInterface)
		}
		return nil
	}

	errs := make([]CLIError, len(dups))
	for i, dup := range dups {
		errs[i] = CLIError{Code: ErrCodeDuplicateInterface, Message: dup.Error(), Location: dup.SecondSource}
	}
	_ = formatter.Errors("Duplicate interface names", errs)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d duplicate interface name(s)", ErrCodeDuplicateInterface, len(dups)))
}

// diagnostics returns compiler.Validate findings other than duplicates,
// which checkDuplicates reports separately.
func diagnostics(reg *compiler.Registry, implemented compiler.ImplementedSet) []compiler.ValidationError {
	var out []compiler.ValidationError
	for _, v := range compiler.Validate(reg, implemented) {
		if v.Code != compiler.ErrDuplicateInterface {
			out = append(out, v)
		}
	}
	return out
}

func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ledgerRecord is the outcome of appending a run to the ledger.
type ledgerRecord struct {
	run store.Run
	// changed is set when the previous run recorded a different layout.
	changed bool
	// seenIn is the earliest earlier run with this layout, looked up only
	// when the layout changed.
	seenIn *store.Run
}

// recordRun appends this run to the ledger and compares its layout hash
// with the previous run's.
func recordRun(ctx context.Context, path string, project *Project, layoutHash string, artifacts []store.Artifact) (ledgerRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.Open(path)
	if err != nil {
		return ledgerRecord{}, err
	}
	defer s.Close()

	prev, err := s.LatestRun(ctx)
	if err != nil {
		return ledgerRecord{}, err
	}

	var rec ledgerRecord
	if prev != nil && prev.LayoutHash != layoutHash {
		rec.changed = true
		if rec.seenIn, err = s.FirstRunWithLayout(ctx, layoutHash); err != nil {
			return ledgerRecord{}, err
		}
	}

	run := store.Run{
		LayoutHash:  layoutHash,
		ToolVersion: ir.ToolVersion,
		IRVersion:   ir.IRVersion,
		Artifacts:   artifacts,
	}
	for _, iface := range project.Registry.Interfaces() {
		run.Interfaces = append(run.Interfaces, store.RunInterface{
			Identity:    iface.ID,
			Name:        iface.Name,
			Version:     iface.Version,
			Source:      iface.Source,
			Requests:    len(iface.Requests),
			Events:      len(iface.Events),
			Implemented: project.Implemented.Contains(iface.Name),
		})
	}

	if rec.run, err = s.RecordRun(ctx, run); err != nil {
		return ledgerRecord{}, err
	}
	return rec, nil
}

func outputGenerateSuccess(formatter *OutputFormatter, result GenerateResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %d interface(s), %d implemented\n\n", result.Interfaces, result.Implemented)
	for _, art := range result.Artifacts {
		fmt.Fprintf(formatter.Writer, "  %-13s %s (%d bytes)\n", art.Kind+":", art.Path, art.Size)
	}
	if result.RunID != "" {
		fmt.Fprintf(formatter.Writer, "\nRecorded run %s\n", result.RunID)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintf(formatter.Writer, "\n%d warning(s)\n", len(result.Warnings))
	}
	return nil
}
