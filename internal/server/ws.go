package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/machidyo/MediaPipeHandTracking/internal/graph"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHub broadcasts result packets to WebSocket clients. It is fed by
// the coordinator's result observer; Broadcast must stay non-blocking-fast.
type LandmarksHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewLandmarksHub creates an empty hub.
func NewLandmarksHub() *LandmarksHub {
	return &LandmarksHub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends one packet to all connected clients. Its signature matches
// the coordinator's result observer.
func (h *LandmarksHub) Broadcast(packet graph.Packet, summary string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg := map[string]any{
		"timestamp": packet.Timestamp,
		"hands":     packet.Hands,
		"summary":   summary,
	}

	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("websocket write error: %v", err)
		}
	}
}
