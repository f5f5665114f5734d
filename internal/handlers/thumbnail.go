package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// GetThumbnail serves a generated thumbnail out of the cache directory.
// Names are flat cache keys; anything containing a path separator or dot
// segment is rejected before touching the filesystem.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		writeJSONError(w, "invalid thumbnail name", http.StatusBadRequest)
		return
	}
	if !strings.HasSuffix(name, ".jpg") {
		writeJSONError(w, "invalid thumbnail name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.thumbDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeJSONError(w, "thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
