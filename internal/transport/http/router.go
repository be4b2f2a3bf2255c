// Package httptransport assembles the public HTTP surface from the domain
// handlers and the shared middleware chain.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stemma/internal/platform/metrics"
	"stemma/internal/platform/middleware"
	"stemma/internal/transport/http/shared"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig collects everything the router needs.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Validator guards the domain routes; nil disables authentication.
	Validator middleware.TokenValidator

	Handlers []Registrar
}

// NewRouter wires the middleware chain, the health endpoint, and the domain
// routes. Domain routes sit behind bearer auth unless no validator is given.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(g chi.Router) {
		if cfg.Validator != nil {
			g.Use(middleware.RequireAuth(cfg.Validator, cfg.Logger))
		}
		for _, h := range cfg.Handlers {
			h.Register(g)
		}
	})

	return r
}
