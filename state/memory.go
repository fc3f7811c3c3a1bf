// Package state provides ForgeState implementations: an in-memory map for
// tests and single-process use, and durable SQL-backed stores for SQLite
// and MySQL.
package state

import (
	"context"
	"sync"

	"github.com/forgetree/forge"
)

// Memory is an in-process, non-durable forge.ForgeState keyed by session ID
// then by state key. It never returns a Get error; unset keys simply report
// absence.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]forge.SchemaValue
}

// NewMemory creates an empty in-memory state store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]forge.SchemaValue)}
}

// Session scopes this store to a single session ID, returning a
// forge.ForgeState that namespaces all keys under it.
func (m *Memory) Session(sessionID string) forge.ForgeState {
	return &memorySession{store: m, sessionID: sessionID}
}

type memorySession struct {
	store     *Memory
	sessionID string
}

func (s *memorySession) Get(_ context.Context, key string) (forge.SchemaValue, bool, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	bucket, ok := s.store.data[s.sessionID]
	if !ok {
		return forge.Null, false, nil
	}
	val, ok := bucket[key]
	return val, ok, nil
}

func (s *memorySession) Set(_ context.Context, key string, value forge.SchemaValue) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	bucket, ok := s.store.data[s.sessionID]
	if !ok {
		bucket = make(map[string]forge.SchemaValue)
		s.store.data[s.sessionID] = bucket
	}
	bucket[key] = value
	return nil
}
