package ws

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/application/collab"
	domain "github.com/bryanwahyu/codepilot/internal/domain/collab"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// event is the inbound client message envelope.
type event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

type sessionEvent struct {
	Type         string   `json:"type"`
	SessionID    string   `json:"session_id"`
	Code         string   `json:"code,omitempty"`
	Language     string   `json:"language,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handler serves the realtime collaboration endpoint. Each connection is one
// participant; events create, join and edit sessions, and the hub fans the
// resulting notifications out to the session room.
type Handler struct {
	Hub         *Hub
	Coordinator *collab.Coordinator
	Log         *zap.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	participant := r.URL.Query().Get("participant")
	if participant == "" {
		participant = uuid.New().String()
	}
	client := &Client{conn: conn, participantID: participant}

	// An existing session can be attached at connect time.
	if sessionID := r.URL.Query().Get("session"); sessionID != "" {
		h.Hub.join(client, sessionID)
	}

	defer func() {
		h.Hub.remove(client)
		conn.Close()
	}()

	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		h.dispatch(r, client, ev)
	}
}

func (h *Handler) dispatch(r *http.Request, client *Client, ev event) {
	ctx := r.Context()

	switch ev.Type {
	case "create_session":
		sess, err := h.Coordinator.Store.Create(ctx, ev.SessionID, ev.Code, ev.Language)
		if err != nil {
			h.sendError(client, err)
			return
		}
		h.Hub.join(client, sess.ID)
		client.write(sessionEvent{
			Type:      "session_created",
			SessionID: sess.ID,
			Code:      sess.Content,
			Language:  sess.Language,
		})

	case "join_session":
		// Join the room first so the client also receives the user_joined
		// broadcast for its own arrival.
		h.Hub.join(client, ev.SessionID)
		sess, err := h.Coordinator.HandleJoin(ctx, ev.SessionID, client.participantID)
		if err != nil {
			h.Hub.remove(client)
			h.sendError(client, err)
			return
		}
		client.write(sessionEvent{
			Type:         "session_joined",
			SessionID:    sess.ID,
			Code:         sess.Content,
			Language:     sess.Language,
			Participants: sess.Participants,
		})

	case "code_change":
		sessionID := ev.SessionID
		if sessionID == "" {
			sessionID = client.sessionID
		}
		if err := h.Coordinator.HandleEdit(ctx, sessionID, ev.Code, client.participantID); err != nil {
			h.sendError(client, err)
		}

	default:
		h.sendError(client, errors.New("unknown event type: "+ev.Type))
	}
}

func (h *Handler) sendError(client *Client, err error) {
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		msg = "session not found"
	case errors.Is(err, domain.ErrDuplicateSession):
		msg = "session already exists"
	default:
		if err != nil {
			msg = err.Error()
		}
	}
	client.write(errorEvent{Type: "session_error", Message: msg})
}
