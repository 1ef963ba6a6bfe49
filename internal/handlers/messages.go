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

type MessageHandler struct {
	messages services.MessageService
}

func NewMessageHandler(messages services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List returns the most recent messages, created_at ascending, with joined
// nicknames.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.FetchMessages(r.Context())
	if err != nil {
		log.Printf("Error fetching messages: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// Send inserts a message attributed to the caller and returns the stored
// row so the client can append it without waiting for the realtime event.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := appMiddleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.SendMessage(r.Context(), userID, appMiddleware.UserName(r.Context()), req.Content)
	if err != nil {
		if errors.Is(err, models.ErrEmptyMessage) {
			http.Error(w, "Message content is empty", http.StatusBadRequest)
			return
		}
		log.Printf("Error sending message for user %s: %v", userID, err)
		http.Error(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
