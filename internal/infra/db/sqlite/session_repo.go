package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bryanwahyu/codepilot/internal/domain/collab"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the session snapshot. Called on every mutation, so the row
// always mirrors the in-memory state.
func (r *SessionRepository) Save(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO collaboration_sessions
  (id, participants_json, content, language, created_at, last_modified, active)
VALUES (?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  participants_json=excluded.participants_json,
  content=excluded.content,
  language=excluded.language,
  created_at=excluded.created_at,
  last_modified=excluded.last_modified,
  active=excluded.active;
`
	participants, err := json.Marshal(s.Participants)
	if err != nil {
		return err
	}
	active := 0
	if s.Active {
		active = 1
	}

	_, err = r.db.ExecContext(ctx, q,
		s.ID, string(participants), s.Content, s.Language,
		s.CreatedAt.Format(time.RFC3339Nano),
		s.LastModified.Format(time.RFC3339Nano),
		active,
	)
	return err
}

// Load reads one session snapshot by id.
func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	const q = `
SELECT id, participants_json, content, language, created_at, last_modified, active
FROM collaboration_sessions
WHERE id = ? LIMIT 1;
`
	var s domain.Session
	var participants, created, modified string
	var active int
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &participants, &s.Content, &s.Language, &created, &modified, &active)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participants), &s.Participants); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, err
	}
	if s.LastModified, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return nil, err
	}
	s.Active = active == 1
	return &s, nil
}
