package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/thelonepunk/amorphic-learn/internal/metrics"
	"github.com/thelonepunk/amorphic-learn/internal/videostore"
)

// StreamVideo serves a stored video by name with HTTP range support. A
// stream opened before the transcode's atomic rename keeps reading the
// old file through its open handle; one opened after reads the new file.
// GET /videos/{name}
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	file, err := h.store.Open(name)
	if err != nil {
		if errors.Is(err, videostore.ErrInvalidName) {
			http.Error(w, "Invalid video name", http.StatusBadRequest)
			return
		}
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}

	if r.Header.Get("Range") != "" {
		metrics.StreamRequestsTotal.WithLabelValues("range").Inc()
	} else {
		metrics.StreamRequestsTotal.WithLabelValues("full").Inc()
	}

	w.Header().Set("Content-Type", videoContentType(name))

	// ServeContent handles single-range requests: 206, Content-Range,
	// Accept-Ranges, and Content-Length.
	http.ServeContent(w, r, name, stat.ModTime(), file)
}

// GetCover serves a stored course cover image.
// GET /covers/{name}
func (h *Handlers) GetCover(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	file, err := h.covers.Open(name)
	if err != nil {
		http.Error(w, "Cover not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil || stat.IsDir() {
		http.Error(w, "Cover not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, name, stat.ModTime(), file)
}

// videoContentType maps a stored name's extension to its container MIME
// type, defaulting to video/mp4.
func videoContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "video/mp4"
}
