// Package lineage loads the directed family-relationship graph and exposes
// the adjacency index the succession evaluator traverses.
//
// The loader is deliberately cache-free: as-of filtering and adoption
// admissibility vary per call, so each evaluation rebuilds its index from the
// current store state instead of invalidating a shared one.
package lineage

import (
	"context"
	"fmt"

	"stemma/internal/relationship"
	"stemma/pkg/domain"
)

// Graph is an immutable snapshot of lineage edges with a parent-to-edges
// out-adjacency index for forward (parent -> child) traversal.
type Graph struct {
	edges    []*relationship.Relationship
	parentTo map[int64][]*relationship.Relationship
}

// Edges returns all loaded edges in ascending id order.
func (g *Graph) Edges() []*relationship.Relationship { return g.edges }

// EdgesFrom returns the outgoing lineage edges of a parent, in ascending id
// order. The returned slice must not be mutated.
func (g *Graph) EdgesFrom(parentID int64) []*relationship.Relationship {
	return g.parentTo[parentID]
}

// Loader builds lineage graphs from the relationship store.
type Loader struct {
	rels relationship.Store
}

func NewLoader(rels relationship.Store) *Loader {
	return &Loader{rels: rels}
}

// Load fetches every person-to-person lineage edge, optionally restricted to
// those active asOf, and indexes them by parent. Adoption edges are excluded
// entirely when allowAdoption is false, not merely down-weighted.
func (l *Loader) Load(ctx context.Context, asOf *domain.Date, allowAdoption bool) (*Graph, error) {
	edges, err := l.rels.ListLineage(ctx, relationship.LineageQuery{
		AsOf:          asOf,
		AllowAdoption: allowAdoption,
	})
	if err != nil {
		return nil, fmt.Errorf("load lineage edges: %w", err)
	}

	g := &Graph{
		edges:    edges,
		parentTo: make(map[int64][]*relationship.Relationship),
	}
	// Store results are id-ordered, so each adjacency list is too; BFS
	// discovery order over the graph is therefore deterministic.
	for _, e := range edges {
		g.parentTo[e.LeftEntityID] = append(g.parentTo[e.LeftEntityID], e)
	}
	return g, nil
}
