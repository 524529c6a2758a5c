package collab

import "context"

// Broadcaster port (interface untuk transport fan-out)
// Send is fire-and-forget, at-most-once: a participant that misses a payload
// re-fetches the session on reconnect.
type Broadcaster interface {
	Send(sessionID string, payload any, exclude map[string]struct{})
}

// Archive port: snapshot persistence hook for sessions. Failures are logged
// and never surfaced to the editing participant.
type Archive interface {
	Save(ctx context.Context, s *Session) error
}
