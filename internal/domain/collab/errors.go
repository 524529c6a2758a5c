package collab

import "errors"

// ErrSessionNotFound indicates no active session exists for the identifier.
var ErrSessionNotFound = errors.New("session not found")

// ErrDuplicateSession indicates an active session already holds the identifier.
// Silently overwriting a live session would discard participant state.
var ErrDuplicateSession = errors.New("session already exists")
