package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
)

// IndexHandler serves the browser front end from a static directory
type IndexHandler struct {
	staticDir string
}

// NewIndexHandler creates a handler serving files under staticDir
func NewIndexHandler(staticDir string) *IndexHandler {
	return &IndexHandler{staticDir: staticDir}
}

// RegisterRoutes registers / and /static/ on the root router
func (h *IndexHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.ServeIndex).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))),
	).Methods(http.MethodGet)
}

// ServeIndex serves index.html
func (h *IndexHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.staticDir, "index.html")
	if _, err := os.Stat(path); err != nil {
		respondNotFound(w, time.Now(), "Front end not found")
		return
	}
	http.ServeFile(w, r, path)
}
