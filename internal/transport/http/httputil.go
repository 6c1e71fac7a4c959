package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"sijil/pkg/platform/sentinel"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeStoreError translates store failures into HTTP responses. Mutation
// failures must reach the caller; they are never silently absorbed.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeError(w, http.StatusNotFound, "clinic not found")
	case errors.Is(err, sentinel.ErrConflict):
		writeError(w, http.StatusConflict, "license number already registered")
	case errors.Is(err, sentinel.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "registry store unavailable")
	default:
		writeError(w, http.StatusBadGateway, "registry store error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
