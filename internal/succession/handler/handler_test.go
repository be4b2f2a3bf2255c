package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"stemma/internal/audit"
	"stemma/internal/lineage"
	"stemma/internal/person"
	"stemma/internal/relationship"
	"stemma/internal/succession"
	"stemma/pkg/domain"
)

func newSuccessionRouter(t *testing.T) (http.Handler, *audit.Recorder) {
	t.Helper()
	ctx := context.Background()
	persons := person.NewMemory()
	rels := relationship.NewMemory()

	male := "M"
	female := "F"
	people := []*person.Person{
		{ID: 1, PrimaryName: "Root", Sex: &male},
		{ID: 2, PrimaryName: "Heir", Sex: &male},
		{ID: 3, PrimaryName: "Daughter", Sex: &female},
	}
	for _, p := range people {
		p.ValidFrom = domain.MustParseDate("1800-01-01")
		if err := persons.Put(ctx, p); err != nil {
			t.Fatalf("seed person %d: %v", p.ID, err)
		}
	}
	edges := []*relationship.Relationship{
		{ID: 1, RelationshipType: relationship.TypeParentChild, LeftEntityID: 1, RightEntityID: 2},
		{ID: 2, RelationshipType: relationship.TypeParentChild, LeftEntityID: 1, RightEntityID: 3},
	}
	for _, r := range edges {
		r.LeftEntityType = relationship.EntityTypePerson
		r.RightEntityType = relationship.EntityTypePerson
		r.ValidFrom = domain.MustParseDate("1820-01-01")
		if err := rels.Put(ctx, r); err != nil {
			t.Fatalf("seed edge %d: %v", r.ID, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	evaluator := succession.New(persons, lineage.NewLoader(rels), logger, nil)
	recorder := audit.NewRecorder(8)

	r := chi.NewRouter()
	New(evaluator, recorder, logger).Register(r)
	return r, recorder
}

func postEvaluate(t *testing.T, router http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/succession/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateValidClaim(t *testing.T) {
	router, recorder := newSuccessionRouter(t)

	rec := postEvaluate(t, router, map[string]any{
		"root_person_id":      1,
		"candidate_person_id": 2,
		"rule_type":           "agnatic",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result succession.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != succession.StatusValid {
		t.Fatalf("expected VALID, got %s", result.Status)
	}
	if result.CheckedPaths != 1 {
		t.Fatalf("expected 1 checked path, got %d", result.CheckedPaths)
	}

	// A verdict event must have been recorded for the worker.
	select {
	case event := <-recorder.Events():
		if event.Kind != audit.KindSuccessionEvaluation {
			t.Fatalf("unexpected event kind %q", event.Kind)
		}
		if event.RootPersonID != 1 || event.CandidatePersonID != 2 {
			t.Fatalf("event addressed to wrong persons: %+v", event)
		}
		if event.Status != string(succession.StatusValid) {
			t.Fatalf("expected VALID event status, got %q", event.Status)
		}
		if event.ID == "" {
			t.Fatal("expected a generated event id")
		}
	default:
		t.Fatal("expected an audit event to be recorded")
	}
}

func TestEvaluateInvalidClaim(t *testing.T) {
	router, _ := newSuccessionRouter(t)

	rec := postEvaluate(t, router, map[string]any{
		"root_person_id":      1,
		"candidate_person_id": 3,
		"rule_type":           "agnatic",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an INVALID verdict, got %d", rec.Code)
	}
	var result succession.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != succession.StatusInvalid {
		t.Fatalf("expected INVALID, got %s", result.Status)
	}
}

func TestEvaluateDefaultsToAgnatic(t *testing.T) {
	router, _ := newSuccessionRouter(t)

	rec := postEvaluate(t, router, map[string]any{
		"root_person_id":      1,
		"candidate_person_id": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result succession.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.RuleType != succession.RuleAgnatic {
		t.Fatalf("expected agnatic default, got %s", result.RuleType)
	}
}

func TestEvaluateCustomRule(t *testing.T) {
	router, _ := newSuccessionRouter(t)

	rec := postEvaluate(t, router, map[string]any{
		"root_person_id":      1,
		"candidate_person_id": 3,
		"rule_type":           "custom",
		"custom_rule": map[string]any{
			"allow_female_inheritance": true,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result succession.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != succession.StatusValid {
		t.Fatalf("expected VALID under custom rule, got %s", result.Status)
	}
	if !result.AppliedRule.AllowFemaleInheritance {
		t.Fatal("expected applied rule to allow female inheritance")
	}
}

func TestEvaluateBadRequests(t *testing.T) {
	router, recorder := newSuccessionRouter(t)

	cases := []map[string]any{
		{"root_person_id": 1}, // missing candidate
		{"root_person_id": 1, "candidate_person_id": 1, "rule_type": "agnatic"},
		{"root_person_id": 1, "candidate_person_id": 2, "rule_type": "primogeniture"},
		{"root_person_id": 1, "candidate_person_id": 2, "rule_type": "agnatic",
			"custom_rule": map[string]any{"max_depth": 0}},
	}
	for i, payload := range cases {
		rec := postEvaluate(t, router, payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/succession/evaluate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	// Failed evaluations never reach the audit trail.
	select {
	case <-recorder.Events():
		t.Fatal("no audit event should be recorded for rejected requests")
	default:
	}
}

func TestEvaluateUnknownPerson(t *testing.T) {
	router, _ := newSuccessionRouter(t)

	rec := postEvaluate(t, router, map[string]any{
		"root_person_id":      1,
		"candidate_person_id": 99,
		"rule_type":           "agnatic",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
