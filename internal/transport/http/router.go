// Package httptransport is the thin HTTP layer over the verification engine
// and clinic cache. Handlers delegate to services and own no business logic;
// dialog and scan-flow state live entirely in the clients.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sijil/internal/clinic/cache"
	"sijil/internal/domain"
	"sijil/internal/feed"
	"sijil/internal/verify"
)

// Verifier is the verification engine surface the handlers need.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) domain.VerificationResult
}

// AttemptReader is the read side of the attempt log, for the ops endpoints.
type AttemptReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.VerificationAttempt, error)
	CountByOutcome(ctx context.Context) (map[domain.VerificationOutcome]int, error)
}

// Handler wires the caller-facing API to the engine.
type Handler struct {
	verifier   Verifier
	cache      *cache.Cache
	attempts   AttemptReader
	reconciler *feed.Reconciler
	logger     *slog.Logger
}

func NewHandler(verifier Verifier, c *cache.Cache, attempts AttemptReader, r *feed.Reconciler, logger *slog.Logger) *Handler {
	return &Handler{
		verifier:   verifier,
		cache:      c,
		attempts:   attempts,
		reconciler: r,
		logger:     logger,
	}
}

// NewRouter mounts all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/verify", h.handleVerify)
		r.Post("/sync", h.handleSync)
		r.Route("/clinics", func(r chi.Router) {
			r.Get("/", h.handleListClinics)
			r.Post("/", h.handleCreateClinic)
			r.Patch("/{id}", h.handleUpdateClinic)
			r.Delete("/{id}", h.handleDeleteClinic)
		})
		r.Route("/attempts", func(r chi.Router) {
			r.Get("/", h.handleListAttempts)
			r.Get("/stats", h.handleAttemptStats)
		})
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"feed":   string(h.reconciler.State()),
	})
}
