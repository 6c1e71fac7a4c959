package httptransport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"sijil/internal/domain"
	"sijil/internal/verify"
)

const maxClientAgent = 256

// VerifyRequest is the wire form of one verification call.
type VerifyRequest struct {
	LicenseNumber string `json:"license_number"`
	Method        string `json:"method"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.LicenseNumber) == "" {
		writeError(w, http.StatusBadRequest, "license_number is required")
		return
	}
	method := domain.CaptureMethod(req.Method)
	if !method.Valid() {
		writeError(w, http.StatusBadRequest, "method must be qr_scan, manual_entry or image_upload")
		return
	}

	result := h.verifier.Verify(r.Context(), verify.Request{
		RawLicense:  req.LicenseNumber,
		Method:      method,
		ClientAgent: clientAgent(r),
	})

	// Failed and not-found are ordinary results: the caller renders them the
	// same way it renders success, just with different content.
	writeJSON(w, http.StatusOK, result)
}

// clientAgent condenses the User-Agent header into the short identifying
// string stored on the attempt. Unparseable agents are stored raw, capped.
func clientAgent(r *http.Request) string {
	raw := r.UserAgent()
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name != "" {
		summary := name
		if version != "" {
			summary = fmt.Sprintf("%s %s", name, version)
		}
		if os := ua.OS(); os != "" {
			summary = fmt.Sprintf("%s (%s)", summary, os)
		}
		return summary
	}
	if len(raw) > maxClientAgent {
		return raw[:maxClientAgent]
	}
	return raw
}
