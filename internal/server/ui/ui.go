// Package ui serves the built browser console from disk.
package ui

import (
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

const indexFile = "index.html"

// Handler serves files below root. Directories resolve to their index.html
// and unknown paths fall back to the root index.html so that client-side
// routes load the application.
type Handler struct {
	root string
}

// New constructs the static file router for root.
func New(root string) http.Handler {
	h := &Handler{root: root}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/*", h.handleFile)
	r.Head("/*", h.handleFile)
	return gzhttp.GzipHandler(r)
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + chi.URLParam(r, "*"))
	target := filepath.Join(h.root, filepath.FromSlash(name))
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, indexFile)
	}

	if h.serveFile(w, r, target) {
		return
	}
	if h.serveFile(w, r, filepath.Join(h.root, indexFile)) {
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, target string) bool {
	f, err := os.Open(target)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
