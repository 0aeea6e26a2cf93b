// ABOUTME: Durable sink for the flow runtime's media history feed.
// ABOUTME: Mirrors in-memory appends into the history table and serves reloads.

package store

import (
	"fmt"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

// AppendHistory stores one history entry. Implements flow.HistorySink.
func (s *Store) AppendHistory(entry flow.HistoryEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO history (history_id, node_id, kind, url, prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(history_id) DO NOTHING`,
		entry.ID, entry.NodeID, entry.Kind, entry.URL, entry.Prompt,
		entry.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListHistory returns up to limit entries, newest first. limit <= 0 returns
// all. ULID ids sort in creation order, so ordering by id is ordering by time.
func (s *Store) ListHistory(limit int) ([]flow.HistoryEntry, error) {
	query := `SELECT history_id, node_id, kind, url, prompt, created_at
		 FROM history ORDER BY history_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []flow.HistoryEntry
	for rows.Next() {
		var e flow.HistoryEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.NodeID, &e.Kind, &e.URL, &e.Prompt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if ts, err := time.Parse(timeFormat, createdAt); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Interface assertion against the flow history sink contract.
var _ flow.HistorySink = (*Store)(nil)
