// Package concepts exposes the tracked-concept registry over HTTP so
// API consumers can discover which tags the engine follows.
package concepts

import (
	"encoding/json"
	"net/http"

	"edgarq/pkg/core/config"
)

// Response lists every tracked concept with its derivability metadata.
type Response struct {
	Count    int                   `json:"count"`
	Concepts []config.ConceptEntry `json:"concepts"`
}

// Handler holds dependencies for the concepts endpoint
type Handler struct {
	Registry *config.Registry
}

// NewHandler creates a new concepts handler
func NewHandler(registry *config.Registry) *Handler {
	return &Handler{Registry: registry}
}

// HandleList handles GET /api/concepts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tracked := h.Registry.Tracked()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{
		Count:    len(tracked),
		Concepts: tracked,
	})
}
