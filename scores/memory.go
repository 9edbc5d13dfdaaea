package scores

import (
	"context"
	"sync"
)

// memory is a map-backed Store. Its contents are lost on exit.
type memory struct {
	mu      sync.RWMutex
	nextID  int64
	entries []Entry
	seen    map[string]bool
}

func NewMemoryStore() Store {
	return &memory{seen: make(map[string]bool)}
}

func (m *memory) Add(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[e.SessionID] {
		return nil
	}
	m.nextID++
	e.ID = m.nextID
	m.entries = append(m.entries, e)
	m.seen[e.SessionID] = true
	Rank(m.entries)
	return nil
}

func (m *memory) List(ctx context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return top(out, limit), nil
}

func (m *memory) Best(ctx context.Context) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return m.entries[0], nil
}

func (m *memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.seen = make(map[string]bool)
	return nil
}

func (m *memory) Close() error { return nil }
