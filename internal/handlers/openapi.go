package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description kept next to the binary. The file is
// read on every request so edits show up without a restart.
type OpenAPIHandler struct {
	path string
}

// NewOpenAPIHandler creates a handler for the YAML document at path
func NewOpenAPIHandler(path string) *OpenAPIHandler {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &OpenAPIHandler{path: filepath.Clean(path)}
}

// RegisterRoutes registers the document routes on the /api router
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods(http.MethodGet)
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods(http.MethodGet)
}

// ServeYAML serves the document as written
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, ok := h.read(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(data)
}

// ServeJSON serves the document converted to JSON for tools that only read JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, ok := h.read(w)
	if !ok {
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		respondInternalError(w, time.Now(), "Failed to parse OpenAPI document")
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// read loads the document, answering 404 itself when it is missing
func (h *OpenAPIHandler) read(w http.ResponseWriter) ([]byte, bool) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		respondNotFound(w, time.Now(), "OpenAPI document not found")
		return nil, false
	}
	return data, true
}
