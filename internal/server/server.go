// Package server provides the HTTP preview transport for the hand tracking pipeline.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/machidyo/MediaPipeHandTracking/internal/server/api"
	"github.com/machidyo/MediaPipeHandTracking/internal/store"
)

// Config holds the server configuration. Store is optional; without it the
// detection log endpoints are not registered.
type Config struct {
	Display   *Display
	Landmarks *LandmarksHub
	Store     *store.Store
}

// Server exposes the rendered preview and the landmark result stream over HTTP.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Display != nil {
		s.mux.Handle("/api/stream", s.config.Display)
	}

	if s.config.Landmarks != nil {
		s.mux.Handle("/api/landmarks", s.config.Landmarks)
	}

	if s.config.Store != nil {
		detections := api.NewDetectionHandler(s.config.Store)
		s.mux.Handle("/api/detections", detections)
		s.mux.Handle("/api/detections/", detections)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
