package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sijil/internal/domain"
	"sijil/internal/normalize"
)

// ClinicsResponse is the snapshot wire form. Generation lets clients detect
// staleness across polls without diffing rows.
type ClinicsResponse struct {
	Generation  uint64          `json:"generation"`
	RefreshedAt time.Time       `json:"refreshed_at"`
	Clinics     []domain.Clinic `json:"clinics"`
}

// CreateClinicRequest is the wire form for creating a registry row.
type CreateClinicRequest struct {
	LicenseNumber string `json:"license_number"`
	Name          string `json:"name"`
	Governorate   string `json:"governorate"`
	Status        string `json:"license_status"`
}

func (h *Handler) handleListClinics(w http.ResponseWriter, r *http.Request) {
	snap := h.cache.List()
	clinics := snap.Clinics
	if clinics == nil {
		clinics = []domain.Clinic{}
	}
	writeJSON(w, http.StatusOK, ClinicsResponse{
		Generation:  snap.Generation,
		RefreshedAt: snap.RefreshedAt,
		Clinics:     clinics,
	})
}

func (h *Handler) handleCreateClinic(w http.ResponseWriter, r *http.Request) {
	var req CreateClinicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	license := normalize.License(req.LicenseNumber)
	if license == "" {
		writeError(w, http.StatusBadRequest, "license_number is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	status := domain.LicenseStatus(req.Status)
	if req.Status == "" {
		status = domain.LicensePending
	}
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "license_status must be active, expired, suspended or pending")
		return
	}

	clinic := domain.Clinic{
		ID:            domain.NewClinicID(),
		LicenseNumber: license,
		Name:          strings.TrimSpace(req.Name),
		Governorate:   strings.TrimSpace(req.Governorate),
		Status:        status,
	}
	if err := h.cache.Create(r.Context(), &clinic); err != nil {
		h.logger.ErrorContext(r.Context(), "create clinic failed", "error", err)
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clinic)
}

func (h *Handler) handleUpdateClinic(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseClinicID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid clinic id")
		return
	}

	var patch domain.ClinicPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if patch.LicenseNumber != nil {
		canonical := normalize.License(*patch.LicenseNumber)
		if canonical == "" {
			writeError(w, http.StatusBadRequest, "license_number cannot be empty")
			return
		}
		patch.LicenseNumber = &canonical
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, "license_status must be active, expired, suspended or pending")
		return
	}

	if err := h.cache.Update(r.Context(), id, patch); err != nil {
		h.logger.ErrorContext(r.Context(), "update clinic failed", "clinic_id", id, "error", err)
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteClinic(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseClinicID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid clinic id")
		return
	}
	if err := h.cache.Delete(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "delete clinic failed", "clinic_id", id, "error", err)
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSync forces an immediate refresh independent of the change feed.
// User-triggered; blocks until the refresh resolves.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Refresh(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "manual sync failed", "error", err)
		writeError(w, http.StatusBadGateway, "registry refresh failed; previous snapshot kept")
		return
	}
	snap := h.cache.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"generation":   snap.Generation,
		"refreshed_at": snap.RefreshedAt,
	})
}
