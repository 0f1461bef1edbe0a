package tokenstore

import (
	"context"
	"sync"

	"github.com/sessionkit/sessionkit/core/session"
)

// Memory is an in-process TokenStore. The zero value is not usable; create
// one with NewMemory. Safe for concurrent use.
type Memory struct {
	mu  sync.RWMutex
	rec *session.Record
}

// NewMemory creates an empty in-memory token store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns a copy of the stored record, or session.ErrNoRecord.
func (s *Memory) Get(ctx context.Context) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec == nil {
		return nil, session.ErrNoRecord
	}
	rec := *s.rec
	return &rec, nil
}

// Set replaces the stored record.
func (s *Memory) Set(ctx context.Context, record session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &record
	return nil
}

// Clear removes the stored record. No-op when nothing is stored.
func (s *Memory) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
