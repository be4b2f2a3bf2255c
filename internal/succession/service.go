package succession

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stemma/internal/lineage"
	"stemma/internal/person"
	"stemma/internal/platform/metrics"
	"stemma/internal/relationship"
	"stemma/pkg/domain"
	dErrors "stemma/pkg/domain-errors"
	"stemma/pkg/platform/sentinel"
)

// EvaluateRequest parameterizes one succession evaluation.
type EvaluateRequest struct {
	RootPersonID      int64
	CandidatePersonID int64
	RuleType          RuleType
	AsOf              *domain.Date
	CustomRule        *CustomRule
}

// Service evaluates succession claims. It consumes the lineage loader's
// adjacency index directly; the genealogy tree builder is a sibling, not an
// input. Each call rebuilds its graph snapshot, so concurrent evaluations
// share no mutable state.
type Service struct {
	persons person.Store
	loader  *lineage.Loader
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(persons person.Store, loader *lineage.Loader, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		persons: persons,
		loader:  loader,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("stemma/succession"),
	}
}

// Evaluate enumerates every acyclic parent->child path from root to candidate
// within the rule's depth bound and returns the governing verdict: the first
// fully VALID path wins immediately, otherwise the first UNCERTAIN path,
// otherwise the first INVALID one, all in BFS discovery order.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "succession.Evaluate", trace.WithAttributes(
		attribute.Int64("root_person_id", req.RootPersonID),
		attribute.Int64("candidate_person_id", req.CandidatePersonID),
		attribute.String("rule_type", string(req.RuleType)),
	))
	defer span.End()

	if req.RootPersonID == req.CandidatePersonID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "root and candidate must differ")
	}
	if _, err := ParseRuleType(string(req.RuleType)); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	cfg, applied, err := resolveRule(req.RuleType, req.CustomRule)
	if err != nil {
		return nil, err
	}

	if err := s.requirePerson(ctx, req.RootPersonID); err != nil {
		return nil, err
	}
	if err := s.requirePerson(ctx, req.CandidatePersonID); err != nil {
		return nil, err
	}

	graph, err := s.loader.Load(ctx, req.AsOf, cfg.AllowAdoption)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load lineage graph")
	}

	paths := findPaths(graph, req.RootPersonID, req.CandidatePersonID, cfg.MaxDepth)
	result, err := s.decide(ctx, req, cfg, applied, paths)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveEvaluation(string(req.RuleType), string(result.Status), result.CheckedPaths)
	s.logger.InfoContext(ctx, "succession evaluated",
		"root_person_id", req.RootPersonID,
		"candidate_person_id", req.CandidatePersonID,
		"rule_type", req.RuleType,
		"status", result.Status,
		"checked_paths", result.CheckedPaths,
	)
	span.SetAttributes(attribute.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) requirePerson(ctx context.Context, id int64) error {
	if _, err := s.persons.Get(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
	}
	return nil
}

// candidatePath is one enumerated root-to-candidate route.
type candidatePath struct {
	personIDs []int64
	edges     []*relationship.Relationship
}

// findPaths enumerates all acyclic parent->child paths from root to candidate
// with at most maxDepth edges. Breadth-first order is part of the contract:
// the aggregate decision rewards the earliest-discovered qualifying path, and
// discovery order is deterministic because adjacency lists are id-ordered.
func findPaths(graph *lineage.Graph, rootID, candidateID int64, maxDepth int) []candidatePath {
	var paths []candidatePath

	queue := []candidatePath{{personIDs: []int64{rootID}}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		// Edge count equals person count minus one.
		if len(current.personIDs)-1 >= maxDepth {
			continue
		}

		last := current.personIDs[len(current.personIDs)-1]
		for _, edge := range graph.EdgesFrom(last) {
			child := edge.RightEntityID
			if containsID(current.personIDs, child) {
				// Revisiting a person on the path would loop forever.
				continue
			}

			next := candidatePath{
				personIDs: append(append([]int64(nil), current.personIDs...), child),
				edges:     append(append([]*relationship.Relationship(nil), current.edges...), edge),
			}
			if child == candidateID {
				paths = append(paths, next)
			} else {
				queue = append(queue, next)
			}
		}
	}
	return paths
}

// decide applies the rule to every path in discovery order and picks the
// governing verdict. It stops at the first VALID path; otherwise it keeps the
// first UNCERTAIN and first INVALID paths seen and prefers them in that order.
func (s *Service) decide(
	ctx context.Context,
	req EvaluateRequest,
	cfg, applied RuleConfig,
	paths []candidatePath,
) (*Result, error) {
	base := Result{
		RootPersonID:      req.RootPersonID,
		CandidatePersonID: req.CandidatePersonID,
		RuleType:          req.RuleType,
		AsOf:              req.AsOf,
		AppliedRule:       applied,
	}

	if len(paths) == 0 {
		base.Status = StatusInvalid
		base.CheckedPaths = 0
		base.Reasons = []Reason{{
			Severity: SeverityError,
			Code:     CodeNoLineagePath,
			Message:  "No lineage path found from root to candidate within depth limit.",
		}}
		return &base, nil
	}

	sexes, err := s.loadSexes(ctx, paths)
	if err != nil {
		return nil, err
	}

	checked := 0
	var firstUncertain, firstInvalid *Result

	for _, path := range paths {
		checked++
		status, reasons := evaluatePath(path, sexes, cfg)

		result := base
		result.Status = status
		result.PathPersonIDs = path.personIDs
		result.RelationshipIDs = relationshipIDs(path.edges)
		result.Reasons = reasons

		switch status {
		case StatusValid:
			result.CheckedPaths = checked
			return &result, nil
		case StatusUncertain:
			if firstUncertain == nil {
				firstUncertain = &result
			}
		default:
			if firstInvalid == nil {
				firstInvalid = &result
			}
		}
	}

	governing := firstInvalid
	if firstUncertain != nil {
		governing = firstUncertain
	}
	governing.CheckedPaths = checked
	return governing, nil
}

// loadSexes loads every person appearing on any enumerated path and indexes
// their normalized sex markers for the per-path checks.
func (s *Service) loadSexes(ctx context.Context, paths []candidatePath) (map[int64]*string, error) {
	idSet := make(map[int64]bool)
	for _, path := range paths {
		for _, id := range path.personIDs {
			idSet[id] = true
		}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	people, err := s.persons.GetMany(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load path persons")
	}

	sexes := make(map[int64]*string, len(people))
	for id, p := range people {
		sexes[id] = normalizeSex(p.Sex)
	}
	return sexes, nil
}

// evaluatePath applies the rule to a single path. The adoption check runs
// first and short-circuits; the sex checks walk every person on the path and
// short-circuit on the first violation or unknown.
func evaluatePath(path candidatePath, sexes map[int64]*string, cfg RuleConfig) (Status, []Reason) {
	if !cfg.AllowAdoption {
		for _, edge := range path.edges {
			if edge.RelationshipType == relationship.TypeAdoption {
				return StatusInvalid, []Reason{{
					Severity:       SeverityError,
					Code:           CodeAdoptionNotAllowed,
					Message:        "Path includes adoption but rule forbids it.",
					RelationshipID: ptr(edge.ID),
				}}
			}
		}
	}

	candidateID := path.personIDs[len(path.personIDs)-1]
	for _, pid := range path.personIDs {
		sex := sexes[pid]

		if pid == candidateID && !cfg.AllowFemaleInheritance {
			if sex == nil {
				return StatusUncertain, []Reason{{
					Severity: SeverityWarning,
					Code:     CodeCandidateSexUnknown,
					Message:  "Candidate sex is missing; cannot prove male-line succession.",
					PersonID: ptr(pid),
				}}
			}
			if *sex != "M" {
				return StatusInvalid, []Reason{{
					Severity: SeverityError,
					Code:     CodeCandidateSexDisallowed,
					Message:  "Candidate is not male; rule requires male heir.",
					PersonID: ptr(pid),
				}}
			}
		}

		if pid != candidateID && !cfg.AllowFemaleTransmission {
			if sex == nil {
				return StatusUncertain, []Reason{{
					Severity: SeverityWarning,
					Code:     CodeAncestorSexUnknown,
					Message:  "Ancestor sex missing; cannot verify strict male-line.",
					PersonID: ptr(pid),
				}}
			}
			if *sex != "M" {
				return StatusInvalid, []Reason{{
					Severity: SeverityError,
					Code:     CodeAncestorSexDisallowed,
					Message:  "Ancestor is not male; rule requires male-line transmission.",
					PersonID: ptr(pid),
				}}
			}
		}
	}

	return StatusValid, []Reason{}
}

// normalizeSex trims and uppercases a sex marker; empty or absent markers
// collapse to nil so missing data stays distinguishable.
func normalizeSex(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*raw))
	if v == "" {
		return nil
	}
	return &v
}

func relationshipIDs(edges []*relationship.Relationship) []int64 {
	ids := make([]int64, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func ptr(v int64) *int64 { return &v }
