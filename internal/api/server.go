// Package api exposes the ingest catalog over a small REST API for
// vault tooling.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/amarchal/shotbox/internal/catalog"
)

// Server handles HTTP requests against the catalog.
type Server struct {
	catalog *catalog.Catalog
	addr    string
	logger  *zap.Logger
}

// New creates a new API server.
func New(c *catalog.Catalog, addr string, logger *zap.Logger) *Server {
	return &Server{catalog: c, addr: addr, logger: logger}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /notes", s.listNotes)
	mux.HandleFunc("GET /search", s.searchNotes)
	mux.HandleFunc("GET /health", s.health)

	s.logger.Info("starting server", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, mux)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	notes, err := s.catalog.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"limit": limit,
	})
}

func (s *Server) searchNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	notes, err := s.catalog.Search(query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"query": query,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
