package session

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryStore persists prompt histories (query-replace, file-open,
// command-palette, …) across restarts, one SQLite table keyed by kind.
// Grounded on the teacher's SQLite-backed SearchIndex
// (apps/texelterm/parser/search_index.go): same "modernc.org/sqlite,
// one small schema, newest-first retrieval" shape, narrowed from
// full-text search to simple recency-ordered history.
type HistoryStore struct {
	db *sql.DB
}

const maxHistoryEntriesPerKind = 200

// OpenHistoryStore opens (creating if necessary) the SQLite database at
// path and ensures its schema exists.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			kind TEXT NOT NULL,
			entry TEXT NOT NULL,
			ts INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_kind_ts ON history(kind, ts DESC);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// Close closes the underlying database.
func (h *HistoryStore) Close() error { return h.db.Close() }

// Add records entry under kind, then trims that kind's history to
// maxHistoryEntriesPerKind rows (oldest first dropped).
func (h *HistoryStore) Add(kind, entry string) error {
	if _, err := h.db.Exec(`INSERT INTO history (kind, entry, ts) VALUES (?, ?, ?)`,
		kind, entry, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	_, err := h.db.Exec(`
		DELETE FROM history WHERE kind = ? AND ts NOT IN (
			SELECT ts FROM history WHERE kind = ? ORDER BY ts DESC LIMIT ?
		)`, kind, kind, maxHistoryEntriesPerKind)
	return err
}

// Recent returns up to limit entries for kind, newest first — the shape
// Session.Histories captures for persistence (spec.md §4.J "collect
// histories").
func (h *HistoryStore) Recent(kind string, limit int) ([]string, error) {
	rows, err := h.db.Query(`SELECT entry FROM history WHERE kind = ? ORDER BY ts DESC LIMIT ?`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// SnapshotAll returns every kind's recent entries, ready to embed in a
// Session.Histories map.
func (h *HistoryStore) SnapshotAll(kinds []string, limitPerKind int) (map[string][]string, error) {
	out := make(map[string][]string, len(kinds))
	for _, k := range kinds {
		entries, err := h.Recent(k, limitPerKind)
		if err != nil {
			return nil, err
		}
		out[k] = entries
	}
	return out, nil
}
