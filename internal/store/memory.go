package store

import (
	"context"
	"sync"
	"time"

	"github.com/muzaffarq/paygent/internal/domain"
)

// MemoryStore is an in-process CredentialStore for tests and single-process
// runs. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	creds     domain.Credentials
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores credentials under the session id with the given TTL.
func (s *MemoryStore) Put(_ context.Context, sessionID string, creds domain.Credentials, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionKey(sessionID)] = memoryEntry{
		creds:     creds,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get returns the credentials if present and unexpired.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (domain.Credentials, bool, error) {
	key := sessionKey(sessionID)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return domain.Credentials{}, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return domain.Credentials{}, false, nil
	}
	return entry.creds, true, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
