package person

import (
	"context"
	"sync"

	"stemma/pkg/platform/sentinel"
)

// Memory is a mutex-guarded in-memory store used by unit tests and as the
// default backend when no database is configured.
type Memory struct {
	mu      sync.RWMutex
	persons map[int64]*Person
}

func NewMemory() *Memory {
	return &Memory{persons: make(map[int64]*Person)}
}

func (s *Memory) Get(_ context.Context, id int64) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *Memory) GetMany(_ context.Context, ids []int64) (map[int64]*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]*Person, len(ids))
	for _, id := range ids {
		if p, ok := s.persons[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

func (s *Memory) Put(_ context.Context, p *Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p.Clone()
	return nil
}
