// Package handler exposes succession evaluation over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stemma/internal/audit"
	"stemma/internal/platform/middleware"
	"stemma/internal/succession"
	"stemma/internal/transport/http/shared"
	"stemma/pkg/domain"
	dErrors "stemma/pkg/domain-errors"
)

// Evaluator evaluates succession claims.
type Evaluator interface {
	Evaluate(ctx context.Context, req succession.EvaluateRequest) (*succession.Result, error)
}

// EventRecorder accepts audit events without blocking.
type EventRecorder interface {
	Record(event audit.Event) bool
}

// Handler handles succession endpoints.
type Handler struct {
	evaluator Evaluator
	recorder  EventRecorder
	logger    *slog.Logger
}

func New(evaluator Evaluator, recorder EventRecorder, logger *slog.Logger) *Handler {
	return &Handler{evaluator: evaluator, recorder: recorder, logger: logger}
}

// Register registers the succession routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/succession/evaluate", h.handleEvaluate)
}

type evaluateRequest struct {
	RootPersonID      int64                  `json:"root_person_id"`
	CandidatePersonID int64                  `json:"candidate_person_id"`
	RuleType          string                 `json:"rule_type"`
	AsOf              *domain.Date           `json:"as_of"`
	CustomRule        *succession.CustomRule `json:"custom_rule"`
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RootPersonID <= 0 || req.CandidatePersonID <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "root_person_id and candidate_person_id are required"))
		return
	}
	ruleType := succession.RuleType(req.RuleType)
	if ruleType == "" {
		ruleType = succession.RuleAgnatic
	}

	result, err := h.evaluator.Evaluate(ctx, succession.EvaluateRequest{
		RootPersonID:      req.RootPersonID,
		CandidatePersonID: req.CandidatePersonID,
		RuleType:          ruleType,
		AsOf:              req.AsOf,
		CustomRule:        req.CustomRule,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "succession evaluation failed",
			"request_id", middleware.GetRequestID(ctx),
			"root_person_id", req.RootPersonID,
			"candidate_person_id", req.CandidatePersonID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	// The verdict is complete before the audit write; a full audit channel
	// drops the event rather than delaying or failing the response.
	if h.recorder != nil {
		kept := h.recorder.Record(audit.Event{
			ID:                uuid.NewString(),
			Kind:              audit.KindSuccessionEvaluation,
			RootPersonID:      result.RootPersonID,
			CandidatePersonID: result.CandidatePersonID,
			RuleType:          string(result.RuleType),
			Status:            string(result.Status),
			CheckedPaths:      result.CheckedPaths,
			RequestID:         middleware.GetRequestID(ctx),
			Timestamp:         time.Now().UTC(),
		})
		if !kept {
			h.logger.WarnContext(ctx, "audit event dropped, channel full",
				"request_id", middleware.GetRequestID(ctx),
			)
		}
	}

	shared.WriteJSON(w, http.StatusOK, result)
}
