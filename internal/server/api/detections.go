// Package api provides HTTP API handlers for the hand tracking detection log.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/machidyo/MediaPipeHandTracking/internal/store"
)

// DetectionHandler handles HTTP requests for detection log resources. The log
// is written by the pipeline; this surface is read-only.
type DetectionHandler struct {
	detections *store.DetectionRepository
}

// NewDetectionHandler creates a new DetectionHandler backed by the given store.
func NewDetectionHandler(s *store.Store) *DetectionHandler {
	return &DetectionHandler{detections: s.Detections()}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *DetectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Expected paths: /api/detections, /api/detections/{id},
	// /api/detections/{id}/landmarks
	path := strings.TrimPrefix(r.URL.Path, "/api/detections")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/landmarks"); ok {
		h.landmarks(w, r, id)
		return
	}

	h.get(w, r, path)
}

type detectionResponse struct {
	ID        string `json:"id"`
	PacketTS  int64  `json:"packet_ts"`
	HandCount int    `json:"hand_count"`
	CreatedAt string `json:"created_at"`
}

func toDetectionResponse(d *store.Detection) detectionResponse {
	return detectionResponse{
		ID:        d.ID,
		PacketTS:  d.PacketTS,
		HandCount: d.HandCount,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
}

// list handles GET /api/detections. The optional limit query parameter caps
// the number of rows returned, newest first.
func (h *DetectionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	detections, err := h.detections.Recent(limit)
	if err != nil {
		http.Error(w, "Failed to list detections", http.StatusInternalServerError)
		return
	}

	response := make([]detectionResponse, 0, len(detections))
	for i := range detections {
		response = append(response, toDetectionResponse(&detections[i]))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/detections/{id}.
func (h *DetectionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	detection, err := h.detections.GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Detection not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get detection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toDetectionResponse(detection))
}

// landmarks handles GET /api/detections/{id}/landmarks. Landmarks come back
// the way they were stored: normalized, in hand and landmark order.
func (h *DetectionHandler) landmarks(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.detections.GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Detection not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get detection", http.StatusInternalServerError)
		return
	}

	hands, err := h.detections.GetLandmarks(id)
	if err != nil {
		http.Error(w, "Failed to get landmarks", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"hands": hands})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
