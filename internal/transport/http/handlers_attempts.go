package httptransport

import (
	"net/http"
	"strconv"

	"sijil/internal/domain"
)

const (
	defaultAttemptLimit = 50
	maxAttemptLimit     = 500
)

// Read-only ops views over the attempt log. The verification path never
// reads attempts; these exist for dashboards and spot checks.

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAttemptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAttemptLimit)
	}

	attempts, err := h.attempts.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list attempts failed", "error", err)
		writeStoreError(w, err)
		return
	}
	if attempts == nil {
		attempts = []domain.VerificationAttempt{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (h *Handler) handleAttemptStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.attempts.CountByOutcome(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "attempt stats failed", "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   counts[domain.OutcomeSuccess],
		"failed":    counts[domain.OutcomeFailed],
		"not_found": counts[domain.OutcomeNotFound],
	})
}
