package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by ReadRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded generate invocation.
type Run struct {
	ID             string         `json:"id"`
	Seq            int64          `json:"seq"`
	LayoutHash     string         `json:"layout_hash"`
	InterfaceCount int            `json:"interface_count"`
	ToolVersion    string         `json:"tool_version"`
	IRVersion      string         `json:"ir_version"`
	Interfaces     []RunInterface `json:"interfaces,omitempty"`
	Artifacts      []Artifact     `json:"artifacts,omitempty"`
}

// RunInterface is one row of a run's identity table.
type RunInterface struct {
	Identity    uint32 `json:"identity"`
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Source      string `json:"source"`
	Requests    int    `json:"requests"`
	Events      int    `json:"events"`
	Implemented bool   `json:"implemented"`
}

// Artifact records one file written by a run.
type Artifact struct {
	Kind string `json:"kind"` // declarations, requests or events
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int    `json:"size"`
}

// NewRunID returns a time-ordered run id.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// RecordRun appends run to the ledger in one transaction. An empty ID gets
// a fresh UUIDv7; Seq is always assigned here as one past the highest
// recorded seq. The stored run is returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	run.InterfaceCount = len(run.Interfaces)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, layout_hash, interface_count, tool_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Seq, run.LayoutHash, run.InterfaceCount, run.ToolVersion, run.IRVersion); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for _, iface := range run.Interfaces {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_interfaces (run_id, identity, name, version, source, requests, events, implemented)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, iface.Identity, iface.Name, iface.Version, iface.Source, iface.Requests, iface.Events, iface.Implemented); err != nil {
			return Run{}, fmt.Errorf("record run interface %q: %w", iface.Name, err)
		}
	}

	for _, art := range run.Artifacts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_artifacts (run_id, kind, path, hash, size)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, art.Kind, art.Path, art.Hash, art.Size); err != nil {
			return Run{}, fmt.Errorf("record run artifact %q: %w", art.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// ListRuns returns run summaries, most recent first, without their
// interface and artifact rows. A limit of zero or less returns every run.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, seq, layout_hash, interface_count, tool_version, ir_version
		FROM runs
		ORDER BY seq DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Seq, &run.LayoutHash, &run.InterfaceCount, &run.ToolVersion, &run.IRVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the run with the given id, including its identity table
// (in identity order) and artifacts (in kind order).
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, layout_hash, interface_count, tool_version, ir_version
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.Seq, &run.LayoutHash, &run.InterfaceCount, &run.ToolVersion, &run.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}

	if run.Interfaces, err = s.readRunInterfaces(ctx, id); err != nil {
		return nil, err
	}
	if run.Artifacts, err = s.readRunArtifacts(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRun returns the most recent run, or nil if the ledger is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return s.ReadRun(ctx, runs[0].ID)
}

// FirstRunWithLayout returns the earliest run that recorded layoutHash, or
// nil if no run did. Interface and artifact rows are not loaded.
func (s *Store) FirstRunWithLayout(ctx context.Context, layoutHash string) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, layout_hash, interface_count, tool_version, ir_version
		FROM runs
		WHERE layout_hash = ?
		ORDER BY seq ASC
		LIMIT 1
	`, layoutHash).Scan(&run.ID, &run.Seq, &run.LayoutHash, &run.InterfaceCount, &run.ToolVersion, &run.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find run by layout: %w", err)
	}
	return &run, nil
}

func (s *Store) readRunInterfaces(ctx context.Context, runID string) ([]RunInterface, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, name, version, source, requests, events, implemented
		FROM run_interfaces
		WHERE run_id = ?
		ORDER BY identity ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run interfaces: %w", err)
	}
	defer rows.Close()

	ifaces := []RunInterface{}
	for rows.Next() {
		var iface RunInterface
		if err := rows.Scan(&iface.Identity, &iface.Name, &iface.Version, &iface.Source, &iface.Requests, &iface.Events, &iface.Implemented); err != nil {
			return nil, fmt.Errorf("scan run interface: %w", err)
		}
		ifaces = append(ifaces, iface)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run interfaces: %w", err)
	}
	return ifaces, nil
}

func (s *Store) readRunArtifacts(ctx context.Context, runID string) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, path, hash, size
		FROM run_artifacts
		WHERE run_id = ?
		ORDER BY kind COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run artifacts: %w", err)
	}
	defer rows.Close()

	arts := []Artifact{}
	for rows.Next() {
		var art Artifact
		if err := rows.Scan(&art.Kind, &art.Path, &art.Hash, &art.Size); err != nil {
			return nil, fmt.Errorf("scan run artifact: %w", err)
		}
		arts = append(arts, art)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run artifacts: %w", err)
	}
	return arts, nil
}
