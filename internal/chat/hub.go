package chat

import (
	"encoding/json"
	"sync"
)

// Hub maps an identity id to the set of its open connections. A user may be
// connected from several devices; delivering to an identity means writing to
// every member of the set, which may be empty.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Join(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[*Client]struct{})
	}
	h.rooms[userID][c] = struct{}{}
}

func (h *Hub) Leave(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[userID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
}

// Deliver pushes an event to every connection in the identity's room.
// Best effort: slow consumers are skipped, persistence already happened.
func (h *Hub) Deliver(userID string, event string, data any) {
	payload, err := json.Marshal(outEvent{Event: event, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[userID] {
		c.TrySend(payload)
	}
}

func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[userID])
}

type outEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// InEvent is the envelope of client-emitted realtime events.
type InEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
)
