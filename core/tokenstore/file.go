package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sessionkit/sessionkit/core/session"
)

// recordFileMode keeps the token readable by the owning user only.
const recordFileMode = 0o600

// File persists the token record as a single JSON file, replaced atomically
// on every write. Safe for concurrent use within one process; cross-process
// writers are not coordinated.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed token store at path. The file is created on
// the first Set; a missing file reads as session.ErrNoRecord.
func NewFile(path string) *File {
	return &File{path: path}
}

// Get reads the persisted record. A missing or empty file returns
// session.ErrNoRecord; an unreadable record is reported as-is so the caller
// can decide whether to fail closed.
func (s *File) Get(ctx context.Context) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, session.ErrNoRecord
		}
		return nil, fmt.Errorf("reading token record: %w", err)
	}
	if len(data) == 0 {
		return nil, session.ErrNoRecord
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding token record: %w", err)
	}
	return &rec, nil
}

// Set writes the record via a temp file and rename, so a crash mid-write
// never leaves a truncated record behind.
func (s *File) Set(ctx context.Context, record session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding token record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token record directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing token record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing token record: %w", err)
	}
	if err := tmp.Chmod(recordFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing token record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing token record: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing token record: %w", err)
	}
	return nil
}

// Clear removes the record file. Missing file is not an error.
func (s *File) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token record: %w", err)
	}
	return nil
}
