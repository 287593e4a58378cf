// Package stream implements a marker surface that mirrors every marker
// operation to connected browsers over WebSocket.
package stream

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"

	ws "github.com/gorilla/websocket"

	"github.com/skywatch-bcn/planeview/internal/reconciler"
	"github.com/skywatch-bcn/planeview/pkg/streaming"
)

type markerState struct {
	asset  string
	x      float64
	placed bool
}

// Hub is a reconciler.Surface backed by WebSocket clients. It keeps the current
// markers and status so that late joiners get a consistent picture.
type Hub struct {
	mu      sync.Mutex
	width   float64
	clients map[*client]struct{}
	markers map[string]*markerState
	status  string
	closed  bool

	upgrader ws.Upgrader
	logger   *slog.Logger
}

var _ reconciler.Surface = (*Hub)(nil)

// New creates a Hub whose logical container is width pixels wide.
func New(width float64, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		width:   width,
		clients: make(map[*client]struct{}),
		markers: make(map[string]*markerState),
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Hub) Width() float64 {
	return h.width
}

// AddMarker records the marker and announces it to all clients.
func (h *Hub) AddMarker(id, asset string) reconciler.Marker {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.markers[id] = &markerState{asset: asset}
	h.broadcastLocked(streaming.TypeMarkerAdd, streaming.MarkerAddPayload{ID: id, Asset: asset})
	return &marker{hub: h, id: id}
}

func (h *Hub) SetStatus(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.status = text
	h.broadcastLocked(streaming.TypeStatus, streaming.StatusPayload{Text: text})
}

func (h *Hub) move(id string, x float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.markers[id]
	if !ok {
		return
	}
	m.x = x
	m.placed = true
	h.broadcastLocked(streaming.TypeMarkerMove, movePayload(id, x))
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.markers[id]; !ok {
		return
	}
	delete(h.markers, id)
	h.broadcastLocked(streaming.TypeMarkerRemove, streaming.MarkerRemovePayload{ID: id})
}

func movePayload(id string, x float64) streaming.MarkerMovePayload {
	return streaming.MarkerMovePayload{ID: id, X: x, Transform: streaming.TranslateX(x)}
}

// broadcastLocked sends one envelope to every client. Clients that cannot keep
// up are disconnected; on reconnect they receive a fresh replay.
func (h *Hub) broadcastLocked(msgType string, payload any) {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		h.logger.Error("Failed to encode stream message", "type", msgType, "error", err)
		return
	}
	for c := range h.clients {
		if !c.send(data) {
			h.logger.Warn("Dropping slow WebSocket client")
			delete(h.clients, c)
			go c.close()
		}
	}
}

// replayLocked encodes the current state in the order a new client applies it.
func (h *Hub) replayLocked() [][]byte {
	ids := make([]string, 0, len(h.markers))
	for id := range h.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out [][]byte
	add := func(msgType string, payload any) {
		data, err := streaming.Marshal(msgType, payload)
		if err != nil {
			h.logger.Error("Failed to encode replay message", "type", msgType, "error", err)
			return
		}
		out = append(out, data)
	}
	for _, id := range ids {
		m := h.markers[id]
		add(streaming.TypeMarkerAdd, streaming.MarkerAddPayload{ID: id, Asset: m.asset})
		if m.placed {
			add(streaming.TypeMarkerMove, movePayload(id, m.x))
		}
	}
	add(streaming.TypeStatus, streaming.StatusPayload{Text: h.status})
	return out
}

// ServeWS upgrades the request, replays the current state and streams updates
// until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	replay := h.replayLocked()
	c := newClient(conn, h.logger, len(replay))
	for _, data := range replay {
		if !c.send(data) {
			h.mu.Unlock()
			h.logger.Warn("Dropping WebSocket client during replay", "frames", len(replay))
			c.close()
			return
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	go c.writeLoop()
	c.readLoop()

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.logger.Debug("WebSocket client disconnected", "remote", r.RemoteAddr)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
	return nil
}

type marker struct {
	hub *Hub
	id  string
}

func (m *marker) Translate(x float64) { m.hub.move(m.id, x) }
func (m *marker) Remove()             { m.hub.remove(m.id) }
