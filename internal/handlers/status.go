package handlers

import (
	"net/http"
)

// GetStatus returns the crawl coordinator state and catalog counts
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.coordinator.GetStatus())
}
