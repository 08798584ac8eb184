package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shelfpoint/scanbridge/internal/models"
	"github.com/shelfpoint/scanbridge/internal/session"
)

type scanRequest struct {
	Code           string      `json:"code"`
	Format         string      `json:"format"`
	Geo            *models.Geo `json:"geo,omitempty"`
	PageLoadTimeMs int64       `json:"page_load_time_ms,omitempty"`
}

// HandleScan ingests raw decoder detections. The detection is queued for the
// coordinator and the request returns immediately; bursts from continuous
// frame scanning are filtered by the debounce gate, not by the client.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request scanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Code == "" {
		h.writeError(w, "code is required", http.StatusBadRequest)
		return
	}

	det := models.Detection{
		Code:           request.Code,
		Format:         request.Format,
		UserAgent:      r.UserAgent(),
		Geo:            request.Geo,
		PageLoadTimeMs: request.PageLoadTimeMs,
	}
	queued := h.coordinator.Submit(det)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	h.writeJSON(w, map[string]any{
		"queued":            queued,
		"session_id":        h.coordinator.SessionID(),
		"haptic":            h.cfg.EnableHapticFeedback,
		"frame_interval_ms": h.cfg.FrameProcessingInterval,
	})
}

// HandleManualScan ingests a manually typed code. Manual entries run the
// identical validate+debounce+deliver path as camera detections and the
// outcome is reported synchronously.
func (h *Handler) HandleManualScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Code == "" {
		h.writeError(w, "code is required", http.StatusBadRequest)
		return
	}

	result := h.coordinator.SubmitManual(r.Context(), request.Code, r.UserAgent())
	switch result.Status {
	case session.StatusInvalid:
		h.writeError(w, "Invalid code: must be 8-14 digits", http.StatusBadRequest)
	case session.StatusDeliveryFailed:
		h.writeError(w, "Failed to upload scan data", http.StatusBadGateway)
	default:
		h.writeJSON(w, map[string]any{
			"status":     result.Status.String(),
			"session_id": h.coordinator.SessionID(),
		})
	}
}
