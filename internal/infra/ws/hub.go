package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Client is one websocket connection bound to a session room. The mutex
// serializes writes; gorilla connections allow only one concurrent writer.
type Client struct {
	mu            sync.Mutex
	conn          *websocket.Conn
	sessionID     string
	participantID string
}

func (c *Client) write(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(payload)
}

// Hub tracks connected clients per session room and implements the collab
// Broadcaster port. Delivery is fire-and-forget: a client whose write fails
// is dropped from the room and must re-fetch session state on reconnect.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) join(c *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.sessionID != "" {
		h.removeLocked(c)
	}
	c.sessionID = sessionID
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[sessionID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.sessionID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
}

// Send broadcasts payload to every client in the session room except the
// excluded participants. Failed writes drop the client.
func (h *Hub) Send(sessionID string, payload any, exclude map[string]struct{}) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		if _, skip := exclude[c.participantID]; skip {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(payload); err != nil {
			h.log.Debug("broadcast write failed, dropping client",
				zap.String("session_id", sessionID),
				zap.String("participant_id", c.participantID),
				zap.Error(err),
			)
			h.remove(c)
			c.conn.Close()
		}
	}
}
