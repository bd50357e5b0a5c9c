package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/medisearch/models"
)

type entry struct {
	history models.History
	expires time.Time
}

// Store is a process-local history backend. Sessions expire lazily: an
// expired entry is dropped on the next access that touches it.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
}

// New builds an in-memory store. ttl <= 0 means sessions never expire.
func New(ttl time.Duration) *Store {
	return &Store{entries: make(map[string]*entry), ttl: ttl}
}

func (s *Store) Ensure(_ context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if ok && s.expired(e) {
		delete(s.entries, id)
		ok = false
	}
	if !ok {
		s.entries[id] = &entry{expires: s.deadline()}
	}
	return id, nil
}

func (s *Store) History(_ context.Context, id string) (models.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		return nil, nil
	}
	out := make(models.History, len(e.history))
	copy(out, e.history)
	return out, nil
}

func (s *Store) Append(_ context.Context, id string, turns ...models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		e = &entry{}
		s.entries[id] = e
	}
	e.history = append(e.history, turns...)
	e.expires = s.deadline()
	return nil
}

func (s *Store) deadline() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(s.ttl)
}

func (s *Store) expired(e *entry) bool {
	return !e.expires.IsZero() && time.Now().After(e.expires)
}
