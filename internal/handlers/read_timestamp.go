package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"BandChat/server/internal/appMiddleware"
	"BandChat/server/internal/services"
)

type ReadTimestampHandler struct {
	timestamps services.ReadTimestampService
}

func NewReadTimestampHandler(timestamps services.ReadTimestampService) *ReadTimestampHandler {
	return &ReadTimestampHandler{timestamps: timestamps}
}

// Get returns the caller's last read timestamp; null when the user has
// never read the chat.
func (h *ReadTimestampHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lastRead, err := h.timestamps.FetchLastRead(r.Context(), userID)
	if err != nil {
		log.Printf("Error fetching read timestamp for %s: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*time.Time{"last_read_at": lastRead})
}

// Put upserts the caller's read boundary. An omitted timestamp means "now".
func (h *ReadTimestampHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		LastReadAt *time.Time `json:"last_read_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ts := time.Now()
	if req.LastReadAt != nil {
		ts = *req.LastReadAt
	}

	err := h.timestamps.UpdateLastRead(r.Context(), userID, appMiddleware.UserName(r.Context()), ts)
	if err != nil {
		log.Printf("Error updating read timestamp for %s: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
