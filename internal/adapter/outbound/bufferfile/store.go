// Package bufferfile implements messaging.BufferStore as a single
// append-only JSON-lines file under the agent state directory, per spec §6
// "Buffered messages file". It is grounded on the teacher's
// internal/adapter/outbound/audit/file_store.go (JSONL append + rotation +
// retention pattern), generalized here to the smaller, non-rotating
// buffered-message use case: entries are removed by rewriting the file
// once delivery succeeds, rather than rotated by size/age.
package bufferfile

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/openappsec-go/agentcore/internal/domain/messaging"
)

// Store is a file-order BufferStore: replay after restart happens in the
// order entries were appended, not by timestamp (spec §9 Open Question,
// resolved in favor of file order for this backend).
type Store struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

var _ messaging.BufferStore = (*Store)(nil)

// New returns a Store backed by the JSONL file at path, opening (creating)
// it for append.
func New(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("bufferfile: create state dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("bufferfile: open buffer file: %w", err)
	}
	return &Store{path: path, logger: logger, file: f}, nil
}

// Append writes one JSON-encoded BufferedMessage as a new line.
func (s *Store) Append(_ context.Context, msg messaging.BufferedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("bufferfile: marshal message: %w", err)
	}
	data = append(data, '\n')
	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("bufferfile: write message: %w", err)
	}
	return s.file.Sync()
}

// LoadAll reads every entry currently in the file, in file (append) order.
func (s *Store) LoadAll(_ context.Context) ([]messaging.BufferedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bufferfile: open for read: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []messaging.BufferedMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg messaging.BufferedMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			s.logger.Warn("bufferfile: skipping malformed line", "error", err)
			continue
		}
		out = append(out, msg)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("bufferfile: scan buffer file: %w", err)
	}
	return out, nil
}

// Remove rewrites the file without the first entry matching msg's
// identifying fields. This is O(n) in the buffer size, acceptable given
// the buffer is bounded by spec §4.1 "Buffer persistence".
func (s *Store) Remove(ctx context.Context, msg messaging.BufferedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadAllLocked()
	if err != nil {
		return err
	}

	remaining := make([]messaging.BufferedMessage, 0, len(all))
	removed := false
	for _, m := range all {
		if !removed && sameMessage(m, msg) {
			removed = true
			continue
		}
		remaining = append(remaining, m)
	}

	return s.rewriteLocked(remaining)
}

func (s *Store) loadAllLocked() ([]messaging.BufferedMessage, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("bufferfile: open for read: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []messaging.BufferedMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg messaging.BufferedMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, scanner.Err()
}

func (s *Store) rewriteLocked(entries []messaging.BufferedMessage) error {
	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("bufferfile: create temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("bufferfile: marshal entry: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("bufferfile: write entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("bufferfile: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("bufferfile: fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("bufferfile: close temp file: %w", err)
	}

	_ = s.file.Close()
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("bufferfile: rename temp over buffer file: %w", err)
	}

	f2, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("bufferfile: reopen buffer file: %w", err)
	}
	s.file = f2
	return nil
}

func sameMessage(a, b messaging.BufferedMessage) bool {
	return a.Method == b.Method && a.URI == b.URI && a.Category == b.Category && a.EnqueuedAt.Equal(b.EnqueuedAt)
}

// Len returns the number of entries currently buffered.
func (s *Store) Len(ctx context.Context) (int, error) {
	all, err := s.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
