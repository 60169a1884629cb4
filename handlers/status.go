package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"stickybot/models"
)

// ChannelSnapshotter exposes a read-only view of every channel's current
// reconciliation state.
type ChannelSnapshotter interface {
	Snapshot() []models.ChannelStateView
}

// StatusHandler serves the operator-facing read-only status endpoints.
type StatusHandler struct {
	snapshotter ChannelSnapshotter
	platform    string
}

func NewStatusHandler(snapshotter ChannelSnapshotter, platform string) *StatusHandler {
	return &StatusHandler{
		snapshotter: snapshotter,
		platform:    platform,
	}
}

func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleListChannels returns the current per-channel sticky state.
func (h *StatusHandler) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	views := h.snapshotter.Snapshot()

	response := struct {
		Platform string                    `json:"platform"`
		Channels []models.ChannelStateView `json:"channels"`
	}{
		Platform: h.platform,
		Channels: views,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *StatusHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("❌ Failed to write JSON response: %v", err)
	}
}

func (h *StatusHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering status endpoints")

	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	log.Printf("✅ GET /health endpoint registered")

	router.HandleFunc("/api/channels", h.HandleListChannels).Methods("GET")
	log.Printf("✅ GET /api/channels endpoint registered")
}
