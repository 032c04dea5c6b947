package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gazefront/attention.report/internal/monitoring"
	"github.com/gazefront/attention.report/internal/pipeline"
	"github.com/gazefront/attention.report/internal/track"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans pipeline snapshots out to connected websocket viewers.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()
	monitoring.Logf("live viewer connected, total %d", total)
}

func (h *Hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()
	monitoring.Logf("live viewer disconnected, total %d", total)
}

// Broadcast sends the message to every connected viewer, dropping any whose
// write fails.
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
			monitoring.Logf("live viewer write failed: %v", err)
			delete(h.clients, c)
			c.Close()
		}
	}
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// liveUpdate is one broadcast frame on the live feed.
type liveUpdate struct {
	Status pipeline.Status `json:"status"`
	Tracks []track.Track   `json:"tracks"`
}

// RunBroadcast pushes a status-and-tracks snapshot to all viewers at the
// given interval until the context is cancelled.
func (h *Hub) RunBroadcast(ctx context.Context, runner *pipeline.Runner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			update := liveUpdate{
				Status: runner.Status(),
				Tracks: runner.Tracker().ActiveTracks(),
			}
			data, err := json.Marshal(update)
			if err != nil {
				monitoring.Logf("failed to marshal live update: %v", err)
				continue
			}
			h.Broadcast(data)
		}
	}
}

// liveFeed upgrades the connection and parks it in the hub. The read loop
// only services control frames; viewers are write-only.
func (s *Server) liveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("websocket upgrade failed: %v", err)
		return
	}

	s.hub.register(conn)
	defer s.hub.unregister(conn)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
