package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pragmaValue(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	var value string
	require.NoError(t, db.QueryRow("PRAGMA "+name).Scan(&value))
	return value
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	return version
}

func TestOpen_CreatesLedgerAndParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".wlgen", "nested", "ledger.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	recorded, err := s.RecordRun(ctx, createTestRun("a"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	for i := 0; i < 3; i++ {
		s, err = Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.ReadRun(ctx, recorded.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.LayoutHash)
}

func TestOpen_ParentIsAFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o644))

	_, err := Open(filepath.Join(parent, "ledger.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create ledger directory")
}

func TestClose(t *testing.T) {
	assert.NoError(t, (&Store{}).Close(), "zero store")

	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NotPanics(t, func() { _ = s.Close() })
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pragmaValue(t, s.db, tt.name))
		})
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		table   string
		columns []string
	}{
		{"runs", []string{"id", "seq", "layout_hash", "interface_count", "tool_version", "ir_version"}},
		{"run_interfaces", []string{"run_id", "identity", "name", "version", "source", "requests", "events", "implemented"}},
		{"run_artifacts", []string{"run_id", "kind", "path", "hash", "size"}},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Subset(t, tableColumns(t, s.db, tt.table), tt.columns)
		})
	}
}

func TestSchema_SeqUnique(t *testing.T) {
	s := createTestStore(t)

	insert := `INSERT INTO runs (id, seq, layout_hash, interface_count, tool_version, ir_version)
		VALUES (?, 1, 'hash', 0, '0.1.0', '1')`
	_, err := s.db.Exec(insert, "run-1")
	require.NoError(t, err)
	_, err = s.db.Exec(insert, "run-2")
	assert.Error(t, err, "seq is unique")
}

func TestSchema_IdentityRowsNeedARun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO run_interfaces (run_id, identity, name, version, source, requests, events, implemented)
		VALUES ('missing', 0, 'wl_display', 1, 'wayland.xml', 2, 3, 1)
	`)
	assert.Error(t, err, "foreign key violation")
}

func TestSchema_DeletingRunCascades(t *testing.T) {
	s := createTestStore(t)
	run, err := s.RecordRun(context.Background(), createTestRun("a"))
	require.NoError(t, err)

	_, err = s.db.Exec("DELETE FROM runs WHERE id = ?", run.ID)
	require.NoError(t, err)

	for _, table := range []string{"run_interfaces", "run_artifacts"} {
		var n int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestMigration_FreshLedgerIsCurrent(t *testing.T) {
	s := createTestStore(t)
	assert.Equal(t, currentSchemaVersion, userVersion(t, s.db))
	assert.Contains(t, tableIndexes(t, s.db, "runs"), "idx_runs_layout_hash")
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, currentSchemaVersion, userVersion(t, s.db))
	assert.Contains(t, tableIndexes(t, s.db, "runs"), "idx_runs_layout_hash")
}

func TestMigration_RejectsNewerLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk))
		columns = append(columns, name)
	}
	require.NoError(t, rows.Err())
	return columns
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
