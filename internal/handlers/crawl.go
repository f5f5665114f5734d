package handlers

import (
	"context"
	"net/http"

	"media-catalog/internal/logging"
)

// TriggerCrawl starts a full crawl in the background. Returns 202 if the
// crawl was accepted; a crawl already in flight coalesces into one queued
// re-run, which still counts as accepted.
func (h *Handlers) TriggerCrawl(w http.ResponseWriter, _ *http.Request) {
	if !h.coordinator.IsEnabled() {
		writeJSONError(w, "catalog still loading", http.StatusServiceUnavailable)
		return
	}

	go func() {
		if err := h.coordinator.StartFullCrawl(context.Background()); err != nil {
			logging.Error("api: triggered crawl failed: %v", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "crawl started"})
}

// TriggerSync flushes pending store writes and reloads the catalog without
// crawling the filesystem.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if !h.coordinator.IsEnabled() {
		writeJSONError(w, "catalog still loading", http.StatusServiceUnavailable)
		return
	}

	if err := h.syncer.Sync(r.Context()); err != nil {
		logging.Error("api: sync failed: %v", err)
		writeJSONError(w, "sync failed", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, "synced")
}
