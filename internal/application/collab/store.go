package collab

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/codepilot/internal/domain/collab"
)

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// Store owns the session-id → session mapping. All mutations go through the
// store so last-modified timestamps and archive snapshots stay consistent.
// A global RWMutex guards the map; each session carries its own mutex so
// concurrent edits to different sessions never contend.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	clock   Clock
	log     *zap.Logger
	archive domain.Archive // optional; nil disables snapshots
}

type entry struct {
	mu           sync.Mutex
	id           string
	participants map[string]struct{}
	content      string
	language     string
	createdAt    time.Time
	lastModified time.Time
	active       bool
}

func NewStore(clock Clock, log *zap.Logger, archive domain.Archive) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		clock:    clock,
		log:      log,
		archive:  archive,
	}
}

// snapshot must be called with e.mu held.
func (e *entry) snapshot() *domain.Session {
	participants := make([]string, 0, len(e.participants))
	for p := range e.participants {
		participants = append(participants, p)
	}
	sort.Strings(participants)
	return &domain.Session{
		ID:           e.id,
		Participants: participants,
		Content:      e.content,
		Language:     e.language,
		CreatedAt:    e.createdAt,
		LastModified: e.lastModified,
		Active:       e.active,
	}
}

// Create registers a new session. An empty id gets a generated one. Creating
// over an existing ACTIVE session fails with ErrDuplicateSession; recreating
// over a deactivated one replaces it.
func (s *Store) Create(ctx context.Context, id, code, language string) (*domain.Session, error) {
	if id == "" {
		id = uuid.New().String()
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		existing.mu.Lock()
		active := existing.active
		existing.mu.Unlock()
		if active {
			s.mu.Unlock()
			return nil, domain.ErrDuplicateSession
		}
	}
	now := s.clock.Now().UTC()
	e := &entry{
		id:           id,
		participants: make(map[string]struct{}),
		content:      code,
		language:     language,
		createdAt:    now,
		lastModified: now,
		active:       true,
	}
	s.sessions[id] = e
	s.mu.Unlock()

	e.mu.Lock()
	sess := e.snapshot()
	e.mu.Unlock()
	s.persist(ctx, sess)
	return sess, nil
}

// Join adds a participant to an active session. Joining twice is a no-op.
func (s *Store) Join(ctx context.Context, id, participantID string) (*domain.Session, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, domain.ErrSessionNotFound
	}

	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	e.participants[participantID] = struct{}{}
	sess := e.snapshot()
	e.mu.Unlock()

	s.persist(ctx, sess)
	return sess, nil
}

// Get returns a session by id, including deactivated ones (audit reads).
func (s *Store) Get(_ context.Context, id string) (*domain.Session, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// UpdateContent applies a last-writer-wins content replacement. Returns true
// when the session exists and is active; false otherwise, leaving stored
// content unchanged.
func (s *Store) UpdateContent(ctx context.Context, id, newCode, participantID string) bool {
	e := s.lookup(id)
	if e == nil {
		return false
	}

	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return false
	}
	e.content = newCode
	e.lastModified = s.clock.Now().UTC()
	sess := e.snapshot()
	e.mu.Unlock()

	s.persist(ctx, sess)
	return true
}

// Deactivate marks a session inactive. Content and participants stay
// readable but no further updates are accepted.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	e := s.lookup(id)
	if e == nil {
		return domain.ErrSessionNotFound
	}

	e.mu.Lock()
	e.active = false
	e.lastModified = s.clock.Now().UTC()
	sess := e.snapshot()
	e.mu.Unlock()

	s.persist(ctx, sess)
	return nil
}

// ActiveCount returns the number of active sessions.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.sessions {
		e.mu.Lock()
		if e.active {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// StartJanitor sweeps every interval and deactivates active sessions idle
// longer than ttl. Returns when ctx is cancelled.
func (s *Store) StartJanitor(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, ttl)
		}
	}
}

func (s *Store) sweep(ctx context.Context, ttl time.Duration) {
	cutoff := s.clock.Now().UTC().Add(-ttl)

	s.mu.RLock()
	stale := make([]string, 0)
	for id, e := range s.sessions {
		e.mu.Lock()
		if e.active && e.lastModified.Before(cutoff) {
			stale = append(stale, id)
		}
		e.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, id := range stale {
		if err := s.Deactivate(ctx, id); err == nil {
			s.log.Info("idle session deactivated", zap.String("session_id", id))
		}
	}
}

func (s *Store) lookup(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// persist snapshots the session to the archive when one is configured.
// Failures are logged and never surface to the caller.
func (s *Store) persist(ctx context.Context, sess *domain.Session) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, sess); err != nil {
		s.log.Warn("session snapshot failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}
