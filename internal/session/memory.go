package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements Store with a mutex-guarded map and TTL expiry.
// Expired entries are removed on access and by Sweep.
type InMemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	value     Session
	expiresAt time.Time
}

// NewInMemoryStore creates an in-memory store. ttl <= 0 uses DefaultTTL.
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryStore{
		ttl:  ttl,
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns a copy of the session so callers cannot mutate stored state
// without Set. The Observations slice is shared and must be treated as read-only.
func (m *InMemoryStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[id]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.data, id)
		return nil, false, nil
	}
	s := e.value
	return &s, true, nil
}

// Set stores a copy of s and refreshes its expiry.
func (m *InMemoryStore) Set(ctx context.Context, id string, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v := *s
	v.UpdatedAt = m.now().UTC()
	m.data[id] = entry{value: v, expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Delete removes the session. Deleting a missing ID is not an error.
func (m *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *InMemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.data {
		if now.After(e.expiresAt) {
			delete(m.data, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (m *InMemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
