package storage

import (
	"context"
	"sync"

	"replybot/internal/schedule"
)

// memoryStore keeps schedules in a map. Records are cloned on the way in
// and out so callers can't share mutable state through the store.
type memoryStore struct {
	mu    sync.RWMutex
	items map[string]*schedule.Schedule
}

func NewMemory() schedule.Store {
	return &memoryStore{items: map[string]*schedule.Schedule{}}
}

func (m *memoryStore) Create(_ context.Context, s *schedule.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = s.Clone()
	return nil
}

func (m *memoryStore) Update(_ context.Context, s *schedule.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; !ok {
		return schedule.ErrNotFound
	}
	m.items[s.ID] = s.Clone()
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*schedule.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.items[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memoryStore) ListByOwner(_ context.Context, owner string) ([]*schedule.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*schedule.Schedule, 0, 4)
	for _, s := range m.items {
		if s.Owner == owner {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }
