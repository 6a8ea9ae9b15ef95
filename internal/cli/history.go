package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wlgen/internal/store"
)

// HistoryEntry is one ledger run as listed by history.
type HistoryEntry struct {
	store.Run
	// LayoutChanged is set when the run's layout hash differs from the
	// run recorded before it.
	LayoutChanged bool `json:"layout_changed"`
}

// HistoryResult holds the listed runs, most recent first.
type HistoryResult struct {
	Ledger string         `json:"ledger"`
	Runs   []HistoryEntry `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		configPath string
		ledger     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List generate runs recorded in the ledger",
		Long: `List the runs recorded by generate, most recent first. Runs whose wire
layout differs from the run before them are marked, since a layout change
means every client must be rebuilt against the new dispatch table.

With a run id, print that run's identity table and artifacts.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, configPath, ledger, limit, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file naming the ledger")
	cmd.Flags().StringVar(&ledger, "ledger", "", "path to the SQLite ledger (overrides config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	return cmd
}

func runHistory(rootOpts *RootOptions, configPath, ledger string, limit int, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	path, err := resolveLedger(configPath, ledger)
	if err != nil {
		return loadFailure(formatter, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, "ledger not found", path)
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: ledger not found", ErrCodeNotFound), err)
	}

	s, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLedgerFailed, err.Error(), path)
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: opening ledger", ErrCodeLedgerFailed), err)
	}
	defer s.Close()

	if len(args) == 1 {
		return showRun(ctx, formatter, s, args[0])
	}

	// One extra run tells whether the oldest listed run changed layout.
	fetch := limit
	if fetch > 0 {
		fetch++
	}
	runs, err := s.ListRuns(ctx, fetch)
	if err != nil {
		_ = formatter.Error(ErrCodeLedgerFailed, err.Error(), "")
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: listing runs", ErrCodeLedgerFailed), err)
	}

	result := HistoryResult{Ledger: path, Runs: []HistoryEntry{}}
	for i, run := range runs {
		if limit > 0 && i == limit {
			break
		}
		changed := i+1 < len(runs) && runs[i+1].LayoutHash != run.LayoutHash
		result.Runs = append(result.Runs, HistoryEntry{Run: run, LayoutChanged: changed})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Runs) == 0 {
		fmt.Fprintf(w, "No runs recorded in %s\n", path)
		return nil
	}
	fmt.Fprintf(w, "%5s  %-36s  %-12s %6s  %s\n", "SEQ", "RUN", "LAYOUT", "IFACES", "TOOL")
	for _, e := range result.Runs {
		mark := ""
		if e.LayoutChanged {
			mark = "  layout changed"
		}
		fmt.Fprintf(w, "%5d  %-36s  %-12s %6d  %s%s\n", e.Seq, e.ID, shortHash(e.LayoutHash), e.InterfaceCount, e.ToolVersion, mark)
	}
	return nil
}

func showRun(ctx context.Context, formatter *OutputFormatter, s *store.Store, id string) error {
	run, err := s.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", id), "")
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: run %s not found", ErrCodeNotFound, id))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeLedgerFailed, err.Error(), "")
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: reading run", ErrCodeLedgerFailed), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}

	first, err := s.FirstRunWithLayout(ctx, run.LayoutHash)
	if err != nil {
		_ = formatter.Error(ErrCodeLedgerFailed, err.Error(), "")
		return WrapExitError(ExitCommandError, fmt.Sprintf("%s: reading run", ErrCodeLedgerFailed), err)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  layout: %s\n", run.LayoutHash)
	if first != nil && first.ID != run.ID {
		fmt.Fprintf(w, "  first seen in run %s (seq %d)\n", first.ID, first.Seq)
	}
	fmt.Fprintf(w, "  tool:   %s (ir %s)\n\n", run.ToolVersion, run.IRVersion)
	fmt.Fprintf(w, "%4s  %-36s %3s %4s %4s  %s\n", "ID", "INTERFACE", "VER", "REQ", "EVT", "IMPL")
	for _, iface := range run.Interfaces {
		impl := ""
		if iface.Implemented {
			impl = "yes"
		}
		fmt.Fprintf(w, "%4d  %-36s %3d %4d %4d  %s\n", iface.Identity, iface.Name, iface.Version, iface.Requests, iface.Events, impl)
	}
	if len(run.Artifacts) > 0 {
		fmt.Fprintln(w)
		for _, art := range run.Artifacts {
			fmt.Fprintf(w, "  %-13s %s %s\n", art.Kind+":", shortHash(art.Hash), art.Path)
		}
	}
	return nil
}

// resolveLedger picks the ledger path from the flag, then the config.
func resolveLedger(configPath, ledger string) (string, error) {
	if ledger != "" {
		return ledger, nil
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Ledger == "" {
		return "", &LoadError{Code: ErrCodeLedgerFailed, Message: "no ledger configured; pass --ledger or set ledger in the config"}
	}
	return cfg.Resolve(cfg.Ledger), nil
}
