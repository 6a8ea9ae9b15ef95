// Package store keeps the generation ledger, a SQLite file recording what
// each successful generate run produced.
//
// A run row holds a UUIDv7 id, a logical seq and the layout hash of the
// registry it was generated from. Its identity table lives in
// run_interfaces and the written artifacts, with their SHA-256 digests, in
// run_artifacts. Rows are ordered by seq, never by timestamps.
//
// LatestRun returns the previous run so generate can warn when identities or
// opcodes moved. FirstRunWithLayout names the earliest run that saw a layout,
// which tells a revert apart from a new layout.
//
// Schema changes are appended to the migrations table in store.go and
// tracked with PRAGMA user_version. Opening a ledger written by a newer
// wlgen fails instead of downgrading it.
package store
