package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageNotesChanged tells a tab to reload its note list.
const MessageNotesChanged = "notes_changed"

// Message is pushed to every tab of one session.
type Message struct {
	Type  string `json:"type"`
	Total int    `json:"total"`
}

// Hub tracks connected tabs grouped by session key.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[c.key]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[c.key] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.sessions[c.key]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.sessions, c.key)
	}
}

// Broadcast sends msg to every client of the session. Clients with a full
// buffer miss the message.
func (h *Hub) Broadcast(key string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.sessions[key] {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropped message for slow client", "session", key)
		}
	}
}

// CloseSession disconnects every client of the session.
func (h *Hub) CloseSession(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.sessions[key] {
		close(c.send)
	}
	delete(h.sessions, key)
}

// ClientCount returns the number of connected clients for key.
func (h *Hub) ClientCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[key])
}
