// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package kvstore

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/sxslang/sxs/internal/value"
)

// SchemaVersion is the current kvstore schema version.
const SchemaVersion = "1"

// SQLite is a SQLite-backed, append-only versioned Store (spec
// §6.5). Each Put that changes a key's serialized text appends a new
// version rather than overwriting, so GetHistory can recover every
// prior value.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite opens (creating if necessary) a kvstore database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key     TEXT    NOT NULL,
			version INTEGER NOT NULL,
			text    TEXT    NOT NULL,
			ts      TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%f', 'now')),
			PRIMARY KEY (key, version)
		);
		CREATE INDEX IF NOT EXISTS idx_entries_latest
			ON entries(key, version DESC);
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	if version == "" {
		version = SchemaVersion
	}
	if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("kvstore: unsupported schema version %s (expected %s)", version, SchemaVersion)
	}
	if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) Get(key string) (value.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var text string
	err := s.db.QueryRow("SELECT text FROM entries WHERE key = ? ORDER BY version DESC LIMIT 1", key).Scan(&text)
	if err == sql.ErrNoRows {
		return value.Value{}, false, nil
	}
	if err != nil {
		return value.Value{}, false, err
	}
	v, perr := parseStoredText(text)
	if perr != nil {
		return value.Value{}, false, perr
	}
	return v, true, nil
}

func (s *SQLite) Put(key string, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := v.String()

	var latestVersion int
	var latestText string
	err := s.db.QueryRow(
		"SELECT version, text FROM entries WHERE key = ? ORDER BY version DESC LIMIT 1", key,
	).Scan(&latestVersion, &latestText)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec("INSERT INTO entries (key, version, text) VALUES (?, 1, ?)", key, text)
		return err
	}
	if err != nil {
		return err
	}
	if latestText == text {
		return nil
	}
	_, err = s.db.Exec(
		"INSERT INTO entries (key, version, text) VALUES (?, ?, ?)", key, latestVersion+1, text,
	)
	return err
}

func (s *SQLite) Exists(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n string
	err := s.db.QueryRow("SELECT key FROM entries WHERE key = ? LIMIT 1", key).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLite) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key)
	return err
}

func (s *SQLite) Iterate(fn func(key string, v value.Value) bool) error {
	s.mu.Lock()
	rows, err := s.db.Query(`
		SELECT e.key, e.text FROM entries e
		INNER JOIN (SELECT key, MAX(version) AS mv FROM entries GROUP BY key) latest
			ON e.key = latest.key AND e.version = latest.mv
	`)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	defer rows.Close()

	type row struct{ key, text string }
	var collected []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.text); err != nil {
			return err
		}
		collected = append(collected, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range collected {
		v, perr := parseStoredText(r.text)
		if perr != nil {
			return perr
		}
		if !fn(r.key, v) {
			break
		}
	}
	return nil
}

// GetHistory returns every version of key, newest first; limit <= 0
// returns them all.
func (s *SQLite) GetHistory(key string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(
			"SELECT version, text, ts FROM entries WHERE key = ? ORDER BY version DESC LIMIT ?", key, limit,
		)
	} else {
		rows, err = s.db.Query(
			"SELECT version, text, ts FROM entries WHERE key = ? ORDER BY version DESC", key,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VersionEntry
	for rows.Next() {
		var ve VersionEntry
		if err := rows.Scan(&ve.Version, &ve.Text, &ve.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, ve)
	}
	return entries, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

var (
	_ Store        = (*SQLite)(nil)
	_ HistoryStore = (*SQLite)(nil)
)
