package collab

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/codepilot/internal/domain/collab"
)

// CodeUpdated is broadcast to every participant except the editing one after
// an accepted content update.
type CodeUpdated struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	Code          string    `json:"code"`
	ParticipantID string    `json:"participant_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// UserJoined is broadcast to every participant, the joiner included.
type UserJoined struct {
	Type          string   `json:"type"`
	SessionID     string   `json:"session_id"`
	ParticipantID string   `json:"participant_id"`
	Participants  []string `json:"participants"`
}

// Coordinator applies edit and join events through the Store and fans the
// result out over the transport. Broadcasts are fire-and-forget: no retry,
// no ordering buffer; a participant that missed one re-fetches the session.
type Coordinator struct {
	Store     *Store
	Transport domain.Broadcaster
	Log       *zap.Logger
}

// HandleEdit applies a last-writer-wins content update and notifies the
// other participants. The originator is excluded from the broadcast.
func (c *Coordinator) HandleEdit(ctx context.Context, sessionID, newCode, participantID string) error {
	if !c.Store.UpdateContent(ctx, sessionID, newCode, participantID) {
		return domain.ErrSessionNotFound
	}

	c.Transport.Send(sessionID, CodeUpdated{
		Type:          "code_updated",
		SessionID:     sessionID,
		Code:          newCode,
		ParticipantID: participantID,
		Timestamp:     c.Store.clock.Now().UTC(),
	}, map[string]struct{}{participantID: {}})

	return nil
}

// HandleJoin adds the participant and broadcasts the updated participant set
// to the whole session, the new joiner included.
func (c *Coordinator) HandleJoin(ctx context.Context, sessionID, participantID string) (*domain.Session, error) {
	sess, err := c.Store.Join(ctx, sessionID, participantID)
	if err != nil {
		return nil, err
	}

	c.Transport.Send(sessionID, UserJoined{
		Type:          "user_joined",
		SessionID:     sessionID,
		ParticipantID: participantID,
		Participants:  sess.Participants,
	}, nil)

	return sess, nil
}
