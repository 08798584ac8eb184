package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/shelfpoint/scanbridge/internal/resolver"
)

// maxImageBytes bounds decoded cover captures at 10MB.
const maxImageBytes = 10 * 1024 * 1024

// HandleCover runs the cover identification chain on a captured frame.
// "No book found" is a normal 200 response; only service failures are errors,
// and an unavailable identification service suggests the user retry.
func (h *Handler) HandleCover(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Image == "" {
		h.writeError(w, "image is required", http.StatusBadRequest)
		return
	}

	// Accept data URLs by stripping the prefix.
	if idx := strings.Index(request.Image, ","); idx != -1 && strings.HasPrefix(request.Image, "data:") {
		request.Image = request.Image[idx+1:]
	}

	image, err := base64.StdEncoding.DecodeString(request.Image)
	if err != nil {
		h.writeError(w, "image is not valid base64: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(image) > maxImageBytes {
		h.writeError(w, "image too large (max 10MB)", http.StatusBadRequest)
		return
	}

	result, err := h.coordinator.IdentifyCover(r.Context(), image, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, config.ErrEndpointUnset):
			h.writeError(w, "Cover identification is not configured: "+err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, resolver.ErrUnavailable):
			h.writeError(w, "Identification service unavailable, please retry: "+err.Error(), http.StatusBadGateway)
		default:
			h.writeError(w, "Cover identification failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	response := map[string]any{
		"identified": result.Book.Identified(),
		"book":       result.Book,
		"session_id": h.coordinator.SessionID(),
	}
	if result.Scan != nil {
		response["scan_status"] = result.Scan.Status.String()
	} else {
		response["message"] = "Could not identify a book with a deliverable ISBN"
	}
	h.writeJSON(w, response)
}
