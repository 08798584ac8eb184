package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shelfpoint/scanbridge/internal/config"
	"github.com/shelfpoint/scanbridge/internal/session"
	"github.com/shelfpoint/scanbridge/internal/storage"
)

type Handler struct {
	cfg          *config.Config
	coordinator  *session.Coordinator
	sessionStore *storage.SessionStore
}

func New(cfg *config.Config, coordinator *session.Coordinator, store *storage.SessionStore) *Handler {
	return &Handler{
		cfg:          cfg,
		coordinator:  coordinator,
		sessionStore: store,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
