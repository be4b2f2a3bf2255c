// Package handler exposes the genealogy engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stemma/internal/genealogy"
	"stemma/internal/platform/middleware"
	"stemma/internal/transport/http/shared"
	"stemma/pkg/domain"
	dErrors "stemma/pkg/domain-errors"
)

// TreeService builds person trees.
type TreeService interface {
	BuildPersonTree(ctx context.Context, req genealogy.BuildTreeRequest) (*genealogy.Tree, error)
}

// TimelineService audits local subgraphs for temporal inconsistencies.
type TimelineService interface {
	CheckTimeline(ctx context.Context, req genealogy.CheckTimelineRequest) (*genealogy.CheckResult, error)
}

const defaultDepth = 4

// Handler handles genealogy endpoints.
type Handler struct {
	trees    TreeService
	timeline TimelineService
	logger   *slog.Logger
}

func New(trees TreeService, timeline TimelineService, logger *slog.Logger) *Handler {
	return &Handler{trees: trees, timeline: timeline, logger: logger}
}

// Register registers the genealogy routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/genealogy/persons/{personID}/tree", h.handleTree)
	r.Get("/genealogy/persons/{personID}/checks", h.handleChecks)
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	personID, err := pathPersonID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	direction := genealogy.DirectionAncestors
	if raw := r.URL.Query().Get("direction"); raw != "" {
		direction, err = genealogy.ParseDirection(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, err.Error()))
			return
		}
	}

	depth, err := queryDepth(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	asOf, err := queryAsOf(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	includeMarriages := true
	if raw := r.URL.Query().Get("include_marriages"); raw != "" {
		includeMarriages, err = strconv.ParseBool(raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid include_marriages"))
			return
		}
	}

	tree, err := h.trees.BuildPersonTree(ctx, genealogy.BuildTreeRequest{
		RootPersonID:     personID,
		Direction:        direction,
		Depth:            depth,
		AsOf:             asOf,
		IncludeMarriages: includeMarriages,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "tree build failed",
			"request_id", middleware.GetRequestID(ctx),
			"person_id", personID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tree)
}

func (h *Handler) handleChecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	personID, err := pathPersonID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	depth, err := queryDepth(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	asOf, err := queryAsOf(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.timeline.CheckTimeline(ctx, genealogy.CheckTimelineRequest{
		RootPersonID: personID,
		Depth:        depth,
		AsOf:         asOf,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "timeline check failed",
			"request_id", middleware.GetRequestID(ctx),
			"person_id", personID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func pathPersonID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "personID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid person id")
	}
	return id, nil
}

func queryDepth(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return defaultDepth, nil
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid depth")
	}
	return genealogy.ClampDepth(depth), nil
}

func queryAsOf(r *http.Request) (*domain.Date, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid as_of date, expected YYYY-MM-DD")
	}
	return &d, nil
}
