package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func memoryKey(userID uuid.UUID, key string) string {
	return userID.String() + "|" + key
}

// GetEntry implements Store
func (s *MemoryStore) GetEntry(_ context.Context, userID uuid.UUID, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[memoryKey(userID, key)]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// UpsertEntry implements Store
func (s *MemoryStore) UpsertEntry(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memoryKey(entry.UserID, entry.Key)] = *entry
	return nil
}

// DeleteEntry implements Store
func (s *MemoryStore) DeleteEntry(_ context.Context, userID uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, memoryKey(userID, key))
	return nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
