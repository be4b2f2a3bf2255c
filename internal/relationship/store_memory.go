package relationship

import (
	"context"
	"sort"
	"sync"

	"stemma/pkg/domain"
)

// Memory is a mutex-guarded in-memory store used by unit tests and as the
// default backend when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	edges map[int64]*Relationship
}

func NewMemory() *Memory {
	return &Memory{edges: make(map[int64]*Relationship)}
}

func (s *Memory) ListLineage(_ context.Context, q LineageQuery) ([]*Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parentFilter := idSet(q.ParentIDs)
	childFilter := idSet(q.ChildIDs)

	var out []*Relationship
	for _, r := range s.edges {
		if !r.IsPersonToPerson() || !IsLineageType(r.RelationshipType) {
			continue
		}
		if r.RelationshipType == TypeAdoption && !q.AllowAdoption {
			continue
		}
		if !r.ActiveAt(q.AsOf) {
			continue
		}
		if parentFilter != nil && !parentFilter[r.LeftEntityID] {
			continue
		}
		if childFilter != nil && !childFilter[r.RightEntityID] {
			continue
		}
		out = append(out, r.Clone())
	}
	sortByID(out)
	return out, nil
}

func (s *Memory) ListMarriagesOf(_ context.Context, personIDs []int64, asOf *domain.Date) ([]*Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	touching := idSet(personIDs)

	var out []*Relationship
	for _, r := range s.edges {
		if !r.IsPersonToPerson() || r.RelationshipType != TypeMarriage {
			continue
		}
		if !r.ActiveAt(asOf) {
			continue
		}
		if touching != nil && !touching[r.LeftEntityID] && !touching[r.RightEntityID] {
			continue
		}
		out = append(out, r.Clone())
	}
	sortByID(out)
	return out, nil
}

func (s *Memory) Put(_ context.Context, r *Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[r.ID] = r.Clone()
	return nil
}

func idSet(ids []int64) map[int64]bool {
	if ids == nil {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortByID(rels []*Relationship) {
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
}
