package watchlist

import (
	"context"
	"strings"
	"sync"

	"idhub/pkg/sentinel"
)

// MemoryStore keeps watchlist entries in memory. Suitable for the demo binary
// and tests; shared deployments use the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewMemoryStore creates an empty in-memory watchlist store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

func (s *MemoryStore) Save(_ context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	cp := *e
	s.entries[e.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) FindBySubject(_ context.Context, nationalID, name string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Entry
	for _, id := range s.order {
		e := s.entries[id]
		if matchesSubject(e, nationalID, name) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.entries[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// matchesSubject prefers national ID identity; the name path only engages
// when the caller has no national ID to offer.
func matchesSubject(e *Entry, nationalID, name string) bool {
	if nationalID != "" {
		return e.NationalID == nationalID
	}
	return strings.EqualFold(e.Name, name)
}
