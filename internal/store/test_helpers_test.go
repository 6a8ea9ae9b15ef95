package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh ledger in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun builds a run with a small identity table and all three
// artifacts.
func createTestRun(layoutHash string) Run {
	return Run{
		LayoutHash:  layoutHash,
		ToolVersion: "0.1.0",
		IRVersion:   "1",
		Interfaces: []RunInterface{
			{Identity: 0, Name: "wl_display", Version: 1, Source: "wayland.xml", Requests: 2, Events: 2, Implemented: true},
			{Identity: 1, Name: "wl_registry", Version: 1, Source: "wayland.xml", Requests: 1, Events: 2, Implemented: true},
			{Identity: 2, Name: "wl_callback", Version: 1, Source: "wayland.xml", Requests: 0, Events: 1, Implemented: false},
		},
		Artifacts: []Artifact{
			{Kind: "requests", Path: "out/wayland_request_dispatch.cpp", Hash: "r-hash", Size: 120},
			{Kind: "declarations", Path: "out/wayland_server.hpp", Hash: "d-hash", Size: 300},
			{Kind: "events", Path: "out/wayland_event_dispatch.cpp", Hash: "e-hash", Size: 80},
		},
	}
}
