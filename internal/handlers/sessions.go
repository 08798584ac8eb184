package handlers

import (
	"net/http"
	"strings"

	"github.com/shelfpoint/scanbridge/internal/storage"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]*storage.ScanSession, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, session)
		}
		h.writeJSON(w, sessionList)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/sessions/")

	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, session)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
