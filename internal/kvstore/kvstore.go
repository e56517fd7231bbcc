// Package kvstore provides persistence for sxs values (spec §6.5): a
// small key/value interface with a SQLite-backed implementation and an
// in-memory implementation for tests, plus an append-only version
// history that survives across Put calls.
package kvstore

import "github.com/sxslang/sxs/internal/value"

// Store is the interface session data and kernel-backed persistence
// are built on.
type Store interface {
	// Get retrieves the latest value stored under key. ok is false if
	// key has never been Put.
	Get(key string) (v value.Value, ok bool, err error)
	// Put stores value under key, appending a new version if the
	// serialized form differs from the latest stored version.
	Put(key string, v value.Value) error
	// Exists reports whether key has ever been Put.
	Exists(key string) (bool, error)
	// Delete removes every version stored under key.
	Delete(key string) error
	// Iterate calls fn once per distinct key currently stored, in
	// unspecified order; fn returning false stops iteration early.
	Iterate(fn func(key string, v value.Value) bool) error
	// Close releases any resources the store holds.
	Close() error
}

// VersionEntry is a single historical version of a key (spec §6.5's
// supplemental version-history feature).
type VersionEntry struct {
	Version int
	Text    string
	Ts      string
}

// HistoryStore extends Store with version history queries.
type HistoryStore interface {
	GetHistory(key string, limit int) ([]VersionEntry, error)
}
