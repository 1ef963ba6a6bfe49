package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"BandChat/server/internal/appMiddleware"
	"BandChat/server/internal/models"
	"BandChat/server/internal/services"
)

type ProfileHandler struct {
	profiles services.ProfileService
}

func NewProfileHandler(profiles services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the caller's chat profile, creating it lazily on first use.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.profiles.EnsureProfile(r.Context(), userID, appMiddleware.UserName(r.Context()))
	if err != nil {
		log.Printf("Error fetching profile for %s: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Nickname == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	err := h.profiles.UpdateNickname(r.Context(), userID, req.Nickname)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			http.Error(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.Printf("Error updating nickname for %s: %v", userID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
