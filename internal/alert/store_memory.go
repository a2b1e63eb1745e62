package alert

import (
	"context"
	"sync"

	"idhub/pkg/sentinel"
)

// MemoryStore keeps alerts in memory. Suitable for the demo binary and tests;
// distributed deployments use the Redis store.
type MemoryStore struct {
	mu     sync.RWMutex
	alerts map[string]*Alert
	order  []string
}

// NewMemoryStore creates an empty in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[string]*Alert)}
}

func (s *MemoryStore) Save(_ context.Context, a *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alerts[a.ID]; !exists {
		s.order = append(s.order, a.ID)
	}
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Alert, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.alerts[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}
