package genealogy

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stemma/internal/platform/metrics"
	"stemma/internal/relationship"
	"stemma/pkg/domain"
)

// CheckTimelineRequest parameterizes one consistency check.
type CheckTimelineRequest struct {
	RootPersonID int64
	Depth        int
	AsOf         *domain.Date
}

// TimelineChecker audits the local subgraph around a root person for
// temporal impossibilities and ancestry cycles. It reuses the tree builder
// (direction both, marriages included) to collect the nodes and edges.
type TimelineChecker struct {
	trees   *TreeBuilder
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewTimelineChecker(trees *TreeBuilder, logger *slog.Logger, m *metrics.Metrics) *TimelineChecker {
	return &TimelineChecker{
		trees:   trees,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("stemma/genealogy"),
	}
}

// CheckTimeline runs the full battery of checks. Every check accumulates
// independently; only cycle detection stops after its first finding.
func (c *TimelineChecker) CheckTimeline(ctx context.Context, req CheckTimelineRequest) (*CheckResult, error) {
	ctx, span := c.tracer.Start(ctx, "genealogy.CheckTimeline", trace.WithAttributes(
		attribute.Int64("root_person_id", req.RootPersonID),
	))
	defer span.End()

	depth := ClampDepth(req.Depth)
	tree, err := c.trees.BuildPersonTree(ctx, BuildTreeRequest{
		RootPersonID:     req.RootPersonID,
		Direction:        DirectionBoth,
		Depth:            depth,
		AsOf:             req.AsOf,
		IncludeMarriages: true,
	})
	if err != nil {
		return nil, err
	}

	issues := []Issue{}
	nodeByID := make(map[int64]PersonNode, len(tree.Nodes))
	for _, n := range tree.Nodes {
		nodeByID[n.ID] = n
	}

	for _, n := range tree.Nodes {
		issues = append(issues, checkPerson(n)...)
	}
	for _, e := range tree.Edges {
		issues = append(issues, checkEdge(e, nodeByID)...)
	}
	if issue, found := detectCycle(tree.Edges); found {
		issues = append(issues, issue)
	}

	c.metrics.ObserveTimelineIssues(len(issues))
	c.logger.InfoContext(ctx, "timeline check finished",
		"root_person_id", req.RootPersonID,
		"issues", len(issues),
	)
	return &CheckResult{RootPersonID: req.RootPersonID, Depth: depth, Issues: issues}, nil
}

func checkPerson(p PersonNode) []Issue {
	var issues []Issue
	if p.BirthDate != nil && p.DeathDate != nil && p.BirthDate.After(*p.DeathDate) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodePersonBirthAfterDeath,
			Message:  "Person birth_date is after death_date.",
			PersonID: ptr(p.ID),
		})
	}
	return issues
}

func checkEdge(e Edge, nodeByID map[int64]PersonNode) []Issue {
	var issues []Issue
	if e.ValidTo != nil && e.ValidTo.Before(e.ValidFrom) {
		issues = append(issues, Issue{
			Severity:       SeverityError,
			Code:           CodeRelValidToBeforeValidFrom,
			Message:        "Relationship valid_to is before valid_from.",
			RelationshipID: ptr(e.ID),
		})
	}

	left, leftOK := nodeByID[e.FromPersonID]
	right, rightOK := nodeByID[e.ToPersonID]
	if !leftOK || !rightOK {
		// Date checks need both endpoints resolved to person nodes.
		return issues
	}

	switch {
	case relationship.IsLineageType(e.RelationshipType):
		issues = append(issues, checkLineageDates(e, left, right)...)
	case e.RelationshipType == relationship.TypeMarriage:
		issues = append(issues, checkMarriageDates(e, left, right)...)
	}
	return issues
}

func checkLineageDates(e Edge, parent, child PersonNode) []Issue {
	var issues []Issue
	if parent.BirthDate != nil && child.BirthDate != nil && parent.BirthDate.After(*child.BirthDate) {
		issues = append(issues, Issue{
			Severity:       SeverityError,
			Code:           CodeParentBornAfterChild,
			Message:        "Parent birth_date is after child birth_date.",
			RelationshipID: ptr(e.ID),
		})
	}
	if parent.DeathDate != nil && child.BirthDate != nil && parent.DeathDate.Before(*child.BirthDate) {
		issues = append(issues, Issue{
			Severity:       SeverityError,
			Code:           CodeParentDiedBeforeChildBirth,
			Message:        "Parent death_date is before child birth_date.",
			RelationshipID: ptr(e.ID),
		})
	}
	if child.BirthDate != nil && e.ValidFrom.Before(*child.BirthDate) {
		issues = append(issues, Issue{
			Severity:       SeverityWarning,
			Code:           CodeRelStartBeforeChildBirth,
			Message:        "Relationship valid_from is before child birth_date (may indicate wrong dates or direction).",
			RelationshipID: ptr(e.ID),
		})
	}
	return issues
}

func checkMarriageDates(e Edge, spouseA, spouseB PersonNode) []Issue {
	var issues []Issue
	if spouseA.BirthDate != nil && e.ValidFrom.Before(*spouseA.BirthDate) {
		issues = append(issues, marriageIssue(e, CodeMarriageBeforeSpouseABirth,
			"Marriage valid_from is before spouse A birth_date."))
	}
	if spouseB.BirthDate != nil && e.ValidFrom.Before(*spouseB.BirthDate) {
		issues = append(issues, marriageIssue(e, CodeMarriageBeforeSpouseBBirth,
			"Marriage valid_from is before spouse B birth_date."))
	}
	if spouseA.DeathDate != nil && e.ValidFrom.After(*spouseA.DeathDate) {
		issues = append(issues, marriageIssue(e, CodeMarriageAfterSpouseADeath,
			"Marriage valid_from is after spouse A death_date."))
	}
	if spouseB.DeathDate != nil && e.ValidFrom.After(*spouseB.DeathDate) {
		issues = append(issues, marriageIssue(e, CodeMarriageAfterSpouseBDeath,
			"Marriage valid_from is after spouse B death_date."))
	}
	return issues
}

func marriageIssue(e Edge, code, message string) Issue {
	return Issue{Severity: SeverityError, Code: code, Message: message, RelationshipID: ptr(e.ID)}
}

// detectCycle looks for a cycle in the parent->child lineage graph using
// iterative depth-first search with three-colour marking, so pathological
// inputs cannot exhaust the call stack. Only the first cycle is reported,
// addressed to the search entry node that reached it.
func detectCycle(edges []Edge) (Issue, bool) {
	graph := make(map[int64][]int64)
	var order []int64
	for _, e := range edges {
		if !relationship.IsLineageType(e.RelationshipType) {
			continue
		}
		if _, seen := graph[e.FromPersonID]; !seen {
			order = append(order, e.FromPersonID)
		}
		graph[e.FromPersonID] = append(graph[e.FromPersonID], e.ToPersonID)
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	colors := make(map[int64]int, len(graph))

	type frame struct {
		node int64
		next int
	}

	for _, start := range order {
		if colors[start] == visited {
			continue
		}

		colors[start] = visiting
		stack := []frame{{node: start}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(graph[f.node]) {
				child := graph[f.node][f.next]
				f.next++
				switch colors[child] {
				case visiting:
					return Issue{
						Severity: SeverityError,
						Code:     CodeAncestryCycleDetected,
						Message:  "Cycle detected in parent-child/adoption graph.",
						PersonID: ptr(start),
					}, true
				case visited:
					continue
				default:
					colors[child] = visiting
					stack = append(stack, frame{node: child})
				}
				continue
			}
			colors[f.node] = visited
			stack = stack[:len(stack)-1]
		}
	}
	return Issue{}, false
}

func ptr(v int64) *int64 { return &v }
