package collab

import "time"

// Aggregate Root: Session
// A shared, mutable code buffer with a set of connected participants.
// Sessions are deactivated, never deleted; content and participants are
// retained for audit reads.
type Session struct {
	ID           string    `json:"session_id"`
	Participants []string  `json:"participants"`
	Content      string    `json:"content"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	Active       bool      `json:"active"`
}
