package collab

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "github.com/bryanwahyu/codepilot/internal/domain/collab"
)

type movableClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore() (*Store, *movableClock) {
	clock := &movableClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewStore(clock, zap.NewNop(), nil), clock
}

func TestCreateGeneratesIDWhenEmpty(t *testing.T) {
	store, _ := newTestStore()

	sess, err := store.Create(context.Background(), "", "a=1", "python")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.True(t, sess.Active)
	assert.Equal(t, "a=1", sess.Content)
	assert.Empty(t, sess.Participants)
}

func TestCreateDuplicateActiveSessionFails(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Create(context.Background(), "s1", "a=1", "python")
	require.NoError(t, err)

	_, err = store.Create(context.Background(), "s1", "b=2", "python")
	assert.ErrorIs(t, err, domain.ErrDuplicateSession)

	// The original session is untouched.
	sess, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "a=1", sess.Content)
}

func TestCreateOverDeactivatedSessionSucceeds(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "a=1", "python")
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, "s1"))

	sess, err := store.Create(ctx, "s1", "fresh", "go")
	require.NoError(t, err)
	assert.True(t, sess.Active)
	assert.Equal(t, "fresh", sess.Content)
	assert.Equal(t, "go", sess.Language)
}

func TestJoinNonexistentSession(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Join(context.Background(), "missing", "p1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestJoinDeactivatedSession(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "a=1", "python")
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, "s1"))

	_, err = store.Join(ctx, "s1", "p1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestJoinIsIdempotent(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "a=1", "python")
	require.NoError(t, err)

	_, err = store.Join(ctx, "s1", "p1")
	require.NoError(t, err)
	sess, err := store.Join(ctx, "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, sess.Participants)
}

func TestUpdateContentOnDeactivatedSession(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "a=1", "python")
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, "s1"))

	ok := store.UpdateContent(ctx, "s1", "a=2", "p1")
	assert.False(t, ok)

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a=1", sess.Content)
	assert.False(t, sess.Active)
}

func TestUpdateContentLastWriterWins(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "s1", "a=1", "python")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.True(t, store.UpdateContent(ctx, "s1", "a=2", "p1"))
	require.True(t, store.UpdateContent(ctx, "s1", "a=3", "p2"))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a=3", sess.Content)
	assert.True(t, sess.LastModified.After(created.LastModified))
}

func TestConcurrentUpdatesDoNotRace(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "", "python")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.UpdateContent(ctx, "s1", "edit", "p")
			store.ActiveCount()
		}()
	}
	wg.Wait()

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "edit", sess.Content)
}

func TestActiveCount(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "", "python")
	require.NoError(t, err)
	_, err = store.Create(ctx, "s2", "", "python")
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(ctx, "s2"))

	assert.Equal(t, 1, store.ActiveCount())
}

func TestSweepDeactivatesIdleSessions(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "idle", "", "python")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = store.Create(ctx, "fresh", "", "python")
	require.NoError(t, err)

	store.sweep(ctx, time.Hour)

	idle, err := store.Get(ctx, "idle")
	require.NoError(t, err)
	assert.False(t, idle.Active)

	fresh, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, fresh.Active)
}

type failingArchive struct{ calls int }

func (f *failingArchive) Save(_ context.Context, _ *domain.Session) error {
	f.calls++
	return errors.New("db closed")
}

func TestArchiveFailureDoesNotBlockMutations(t *testing.T) {
	clock := &movableClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	archive := &failingArchive{}
	store := NewStore(clock, zap.NewNop(), archive)
	ctx := context.Background()

	_, err := store.Create(ctx, "s1", "a=1", "python")
	require.NoError(t, err)
	require.True(t, store.UpdateContent(ctx, "s1", "a=2", "p1"))
	assert.Equal(t, 2, archive.calls)
}
