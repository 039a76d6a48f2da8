package checkout

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"
)

// SessionStore holds live sessions.
type SessionStore interface {
	Add(s *Session)
	Get(id string) (*Session, bool)
	Remove(id string)
	Len() int
}

// MemoryStore is a bounded in-process SessionStore. When full, the least
// recently used session is evicted.
type MemoryStore struct {
	cache  *lru.Cache
	logger *slog.Logger
}

// NewMemoryStore creates a store holding at most size sessions.
func NewMemoryStore(size int, logger *slog.Logger) (*MemoryStore, error) {
	s := &MemoryStore{logger: logger}
	cache, err := lru.NewWithEvict(size, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

func (m *MemoryStore) onEvict(key, _ interface{}) {
	m.logger.Debug("checkout session evicted", "session_id", key)
}

// Add stores a session.
func (m *MemoryStore) Add(s *Session) {
	m.cache.Add(s.ID(), s)
}

// Get returns a session and marks it recently used.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

// Remove deletes a session.
func (m *MemoryStore) Remove(id string) {
	m.cache.Remove(id)
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
