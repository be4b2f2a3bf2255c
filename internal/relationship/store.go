package relationship

import (
	"context"

	"stemma/pkg/domain"
)

// LineageQuery selects parent_child/adoption edges between persons.
// Filters are ANDed; nil id slices mean "no endpoint filter". Results are
// ordered by ascending edge id so traversal order is deterministic.
type LineageQuery struct {
	// AsOf, when set, keeps only edges active at that date.
	AsOf *domain.Date
	// AllowAdoption controls whether adoption edges are returned at all.
	// The tree builder always passes true; the succession loader passes the
	// rule's adoption admissibility.
	AllowAdoption bool
	// ParentIDs filters on the left (parent) endpoint.
	ParentIDs []int64
	// ChildIDs filters on the right (child) endpoint.
	ChildIDs []int64
}

// Store is the query surface the engine's loader and tree builder consume,
// plus Put for seeding.
type Store interface {
	// ListLineage returns lineage edges between persons matching the query.
	ListLineage(ctx context.Context, q LineageQuery) ([]*Relationship, error)
	// ListMarriagesOf returns marriage edges between persons where either
	// endpoint is in personIDs, optionally restricted to those active asOf.
	ListMarriagesOf(ctx context.Context, personIDs []int64, asOf *domain.Date) ([]*Relationship, error)
	Put(ctx context.Context, r *Relationship) error
}
