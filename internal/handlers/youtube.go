package handlers

import (
	"errors"
	"log"
	"net/http"

	"BandChat/server/internal/youtube"
)

type YouTubeHandler struct {
	client *youtube.Client
}

func NewYouTubeHandler(client *youtube.Client) *YouTubeHandler {
	return &YouTubeHandler{client: client}
}

// Resolve extracts the video id from a pasted YouTube URL and, when a Data
// API key is configured, returns the video's metadata with a display-ready
// duration.
func (h *YouTubeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")

	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		http.Error(w, "Not a recognized YouTube URL", http.StatusBadRequest)
		return
	}

	if !h.client.Enabled() {
		writeJSON(w, http.StatusOK, map[string]string{"id": videoID})
		return
	}

	video, err := h.client.GetVideo(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, youtube.ErrVideoNotFound) {
			http.Error(w, "Video not found", http.StatusNotFound)
			return
		}
		log.Printf("Error resolving video %s: %v", videoID, err)
		http.Error(w, "Failed to resolve video", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, video)
}
