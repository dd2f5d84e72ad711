// Package sqlite implements messaging.BufferStore on top of a pure-Go,
// cgo-free modernc.org/sqlite database. Unlike bufferfile's file-order
// replay, this store orders replay by the enqueued_at column, resolving
// spec §9's buffered-message-ordering Open Question in favor of true
// timestamp order whenever this backend is selected
// (config.Buffer.Store == "sqlite").
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
)

const schema = `
CREATE TABLE IF NOT EXISTS buffered_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	method TEXT NOT NULL,
	uri TEXT NOT NULL,
	body TEXT NOT NULL,
	category TEXT NOT NULL,
	metadata_json TEXT NOT NULL,
	retry_count INTEGER NOT NULL,
	enqueued_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_buffered_messages_enqueued_at ON buffered_messages(enqueued_at);
`

// Store is a sqlite-backed BufferStore.
type Store struct {
	db *sql.DB
}

var _ messaging.BufferStore = (*Store)(nil)

// New opens (creating if necessary) the sqlite database at path and
// ensures the schema exists.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid lock contention
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts one buffered message row.
func (s *Store) Append(ctx context.Context, msg messaging.BufferedMessage) error {
	metaJSON, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO buffered_messages (method, uri, body, category, metadata_json, retry_count, enqueued_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Method, msg.URI, msg.Body, string(msg.Category), string(metaJSON), msg.RetryCount, msg.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert buffered message: %w", err)
	}
	return nil
}

// LoadAll returns every buffered row ordered by enqueued_at ascending.
func (s *Store) LoadAll(ctx context.Context) ([]messaging.BufferedMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT method, uri, body, category, metadata_json, retry_count, enqueued_at
		 FROM buffered_messages ORDER BY enqueued_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query buffered messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []messaging.BufferedMessage
	for rows.Next() {
		var (
			msg      messaging.BufferedMessage
			category string
			metaJSON string
		)
		if err := rows.Scan(&msg.Method, &msg.URI, &msg.Body, &category, &metaJSON, &msg.RetryCount, &msg.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan buffered message: %w", err)
		}
		msg.Category = messaging.Category(category)
		if err := json.Unmarshal([]byte(metaJSON), &msg.Metadata); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshal metadata: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Remove deletes the oldest row matching msg's identifying fields.
func (s *Store) Remove(ctx context.Context, msg messaging.BufferedMessage) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM buffered_messages WHERE id = (
			SELECT id FROM buffered_messages
			WHERE method = ? AND uri = ? AND category = ? AND enqueued_at = ?
			ORDER BY id ASC LIMIT 1
		)`,
		msg.Method, msg.URI, string(msg.Category), msg.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: delete buffered message: %w", err)
	}
	return nil
}

// Len returns the number of rows currently buffered.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buffered_messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count buffered messages: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
