package genealogy

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stemma/internal/person"
	"stemma/internal/platform/metrics"
	"stemma/internal/relationship"
	"stemma/pkg/domain"
	dErrors "stemma/pkg/domain-errors"
	"stemma/pkg/platform/sentinel"
)

// BuildTreeRequest parameterizes one tree build.
type BuildTreeRequest struct {
	RootPersonID     int64
	Direction        Direction
	Depth            int
	AsOf             *domain.Date
	IncludeMarriages bool
}

// TreeBuilder breadth-expands lineage around a root person. It queries the
// relationship store directly rather than reusing the succession loader's
// fixed parent index, because ancestor expansion walks edges backward.
type TreeBuilder struct {
	persons person.Store
	rels    relationship.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewTreeBuilder(persons person.Store, rels relationship.Store, logger *slog.Logger, m *metrics.Metrics) *TreeBuilder {
	return &TreeBuilder{
		persons: persons,
		rels:    rels,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("stemma/genealogy"),
	}
}

// BuildPersonTree expands up to depth generations from the root along
// parent_child/adoption edges, then optionally attaches marriage edges for
// every discovered person without expanding lineage through spouses.
func (b *TreeBuilder) BuildPersonTree(ctx context.Context, req BuildTreeRequest) (*Tree, error) {
	ctx, span := b.tracer.Start(ctx, "genealogy.BuildPersonTree", trace.WithAttributes(
		attribute.Int64("root_person_id", req.RootPersonID),
		attribute.String("direction", string(req.Direction)),
	))
	defer span.End()

	if _, err := ParseDirection(string(req.Direction)); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	depth := ClampDepth(req.Depth)

	if _, err := b.persons.Get(ctx, req.RootPersonID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load root person")
	}

	collected, edgeByID, err := b.expandLineage(ctx, req.RootPersonID, req.Direction, depth, req.AsOf)
	if err != nil {
		return nil, err
	}

	if req.IncludeMarriages && len(collected) > 0 {
		if err := b.attachMarriages(ctx, collected, edgeByID, req.AsOf); err != nil {
			return nil, err
		}
	}

	tree, err := b.assemble(ctx, req.RootPersonID, req.Direction, depth, req.AsOf, collected, edgeByID)
	if err != nil {
		return nil, err
	}

	b.metrics.ObserveTreeBuild(string(req.Direction))
	b.logger.InfoContext(ctx, "built person tree",
		"root_person_id", req.RootPersonID,
		"direction", req.Direction,
		"nodes", len(tree.Nodes),
		"edges", len(tree.Edges),
	)
	return tree, nil
}

// expandLineage runs the breadth-first discovery loop. Only lineage edges
// drive discovery of new frontier members.
func (b *TreeBuilder) expandLineage(
	ctx context.Context,
	rootID int64,
	direction Direction,
	depth int,
	asOf *domain.Date,
) (map[int64]bool, map[int64]*relationship.Relationship, error) {
	collected := map[int64]bool{rootID: true}
	edgeByID := make(map[int64]*relationship.Relationship)

	frontier := []int64{rootID}
	for generation := 0; generation < depth && len(frontier) > 0; generation++ {
		newlyFound := make(map[int64]bool)

		if direction == DirectionAncestors || direction == DirectionBoth {
			rels, err := b.rels.ListLineage(ctx, relationship.LineageQuery{
				AsOf:          asOf,
				AllowAdoption: true,
				ChildIDs:      frontier,
			})
			if err != nil {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ancestor edges")
			}
			for _, r := range rels {
				edgeByID[r.ID] = r
				if !collected[r.LeftEntityID] {
					newlyFound[r.LeftEntityID] = true
				}
			}
		}

		if direction == DirectionDescendants || direction == DirectionBoth {
			rels, err := b.rels.ListLineage(ctx, relationship.LineageQuery{
				AsOf:          asOf,
				AllowAdoption: true,
				ParentIDs:     frontier,
			})
			if err != nil {
				return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load descendant edges")
			}
			for _, r := range rels {
				edgeByID[r.ID] = r
				if !collected[r.RightEntityID] {
					newlyFound[r.RightEntityID] = true
				}
			}
		}

		frontier = frontier[:0]
		for id := range newlyFound {
			collected[id] = true
			frontier = append(frontier, id)
		}
		sort.Slice(frontier, func(i, j int) bool { return frontier[i] < frontier[j] })
	}

	return collected, edgeByID, nil
}

// attachMarriages adds marriage edges touching any discovered person. Spouse
// nodes become part of the tree but are never re-expanded from.
func (b *TreeBuilder) attachMarriages(
	ctx context.Context,
	collected map[int64]bool,
	edgeByID map[int64]*relationship.Relationship,
	asOf *domain.Date,
) error {
	ids := sortedIDs(collected)
	marriages, err := b.rels.ListMarriagesOf(ctx, ids, asOf)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load marriage edges")
	}
	for _, r := range marriages {
		edgeByID[r.ID] = r
		collected[r.LeftEntityID] = true
		collected[r.RightEntityID] = true
	}
	return nil
}

// assemble loads person records once, projects edges, and computes breadth
// levels from the already-collected edge set.
func (b *TreeBuilder) assemble(
	ctx context.Context,
	rootID int64,
	direction Direction,
	depth int,
	asOf *domain.Date,
	collected map[int64]bool,
	edgeByID map[int64]*relationship.Relationship,
) (*Tree, error) {
	ids := sortedIDs(collected)
	people, err := b.persons.GetMany(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load persons")
	}

	nodes := make([]PersonNode, 0, len(ids))
	for _, id := range ids {
		p, ok := people[id]
		if !ok {
			// Relationship endpoints are not foreign-keyed; tolerate holes.
			continue
		}
		nodes = append(nodes, PersonNode{
			ID:          p.ID,
			PrimaryName: p.PrimaryName,
			BirthDate:   p.BirthDate,
			DeathDate:   p.DeathDate,
		})
	}

	edges := make([]Edge, 0, len(edgeByID))
	for _, r := range edgeByID {
		if !r.IsPersonToPerson() || !r.ActiveAt(asOf) {
			continue
		}
		edges = append(edges, Edge{
			ID:               r.ID,
			RelationshipType: r.RelationshipType,
			FromPersonID:     r.LeftEntityID,
			ToPersonID:       r.RightEntityID,
			ValidFrom:        r.ValidFrom,
			ValidTo:          r.ValidTo,
			SourceIDs:        r.SourceIDs,
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	tree := &Tree{
		RootPersonID: rootID,
		Direction:    direction,
		Depth:        depth,
		Nodes:        nodes,
		Edges:        edges,
	}

	if direction == DirectionAncestors || direction == DirectionBoth {
		tree.LevelsAncestors = truncateLevels(levelsFromEdges(rootID, edges, DirectionAncestors), depth)
	}
	if direction == DirectionDescendants || direction == DirectionBoth {
		tree.LevelsDescendants = truncateLevels(levelsFromEdges(rootID, edges, DirectionDescendants), depth)
	}
	return tree, nil
}

// levelsFromEdges recomputes breadth generations over the collected edge set
// with a second BFS restricted to lineage edges. Ancestor levels traverse
// child -> parent, descendant levels parent -> child; marriages are ignored.
func levelsFromEdges(rootID int64, edges []Edge, mode Direction) []TreeLevel {
	parentToChildren := make(map[int64][]int64)
	childToParents := make(map[int64][]int64)
	for _, e := range edges {
		if !relationship.IsLineageType(e.RelationshipType) {
			continue
		}
		parentToChildren[e.FromPersonID] = append(parentToChildren[e.FromPersonID], e.ToPersonID)
		childToParents[e.ToPersonID] = append(childToParents[e.ToPersonID], e.FromPersonID)
	}

	levels := []TreeLevel{{Level: 0, PersonIDs: []int64{rootID}}}
	seen := map[int64]bool{rootID: true}

	frontier := []int64{rootID}
	level := 0
	for len(frontier) > 0 {
		var next []int64
		level++

		for _, pid := range frontier {
			neighbors := parentToChildren[pid]
			if mode == DirectionAncestors {
				neighbors = childToParents[pid]
			}
			for _, nid := range neighbors {
				if seen[nid] {
					continue
				}
				seen[nid] = true
				next = append(next, nid)
			}
		}

		if len(next) == 0 {
			break
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		levels = append(levels, TreeLevel{Level: level, PersonIDs: next})
		frontier = next
	}
	return levels
}

// truncateLevels keeps level 0 plus at most depth generations.
func truncateLevels(levels []TreeLevel, depth int) []TreeLevel {
	if len(levels) > depth+1 {
		return levels[:depth+1]
	}
	return levels
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
