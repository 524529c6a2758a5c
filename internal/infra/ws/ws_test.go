package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/application/collab"
)

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now() }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := NewHub(zap.NewNop())
	store := collab.NewStore(sysClock{}, zap.NewNop(), nil)
	handler := &Handler{
		Hub:         hub,
		Coordinator: &collab.Coordinator{Store: store, Transport: hub, Log: zap.NewNop()},
		Log:         zap.NewNop(),
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, participant string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?participant=" + participant
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one with the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == wantType {
			return msg
		}
	}
}

func TestCreateJoinAndEditFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	require.NoError(t, alice.WriteJSON(map[string]any{
		"type": "create_session", "session_id": "s1", "code": "a=1", "language": "python",
	}))
	created := readUntil(t, alice, "session_created")
	assert.Equal(t, "s1", created["session_id"])

	require.NoError(t, alice.WriteJSON(map[string]any{"type": "join_session", "session_id": "s1"}))
	readUntil(t, alice, "session_joined")

	bob := dial(t, srv, "bob")
	require.NoError(t, bob.WriteJSON(map[string]any{"type": "join_session", "session_id": "s1"}))
	joined := readUntil(t, bob, "session_joined")
	assert.Equal(t, "a=1", joined["code"])

	// Alice sees bob arrive.
	arrived := readUntil(t, alice, "user_joined")
	assert.Equal(t, "bob", arrived["participant_id"])

	// Bob edits; alice receives the update, bob does not.
	require.NoError(t, bob.WriteJSON(map[string]any{
		"type": "code_change", "session_id": "s1", "code": "a=2",
	}))
	update := readUntil(t, alice, "code_updated")
	assert.Equal(t, "a=2", update["code"])
	assert.Equal(t, "bob", update["participant_id"])

	bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg map[string]any
	err := bob.ReadJSON(&msg)
	assert.Error(t, err, "editing participant must not receive its own update")
}

func TestJoinerReceivesOwnJoinBroadcast(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	require.NoError(t, alice.WriteJSON(map[string]any{
		"type": "create_session", "session_id": "s1", "code": "", "language": "go",
	}))
	readUntil(t, alice, "session_created")

	// The join broadcast reaches the whole room, arriving participant included.
	bob := dial(t, srv, "bob")
	require.NoError(t, bob.WriteJSON(map[string]any{"type": "join_session", "session_id": "s1"}))
	arrived := readUntil(t, bob, "user_joined")
	assert.Equal(t, "bob", arrived["participant_id"])
}

func TestJoinUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv, "alice")
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join_session", "session_id": "nope"}))
	msg := readUntil(t, conn, "session_error")
	assert.Equal(t, "session not found", msg["message"])
}

func TestDuplicateCreateReportsError(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv, "alice")
	create := map[string]any{"type": "create_session", "session_id": "s1", "code": "", "language": "go"}
	require.NoError(t, conn.WriteJSON(create))
	readUntil(t, conn, "session_created")

	require.NoError(t, conn.WriteJSON(create))
	msg := readUntil(t, conn, "session_error")
	assert.Equal(t, "session already exists", msg["message"])
}
