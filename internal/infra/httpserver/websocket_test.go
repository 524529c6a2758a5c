package httpserver

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/analyzer"
	appanalysis "github.com/bryanwahyu/codepilot/internal/application/analysis"
	appassist "github.com/bryanwahyu/codepilot/internal/application/assist"
	appcollab "github.com/bryanwahyu/codepilot/internal/application/collab"
	"github.com/bryanwahyu/codepilot/internal/infra/ws"
)

// newWsServer wires the websocket handler through the full router, middleware
// chain included, the way main.go does.
func newWsServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()

	hub := ws.NewHub(log)
	store := appcollab.NewStore(sysClock{}, log, nil)
	coordinator := &appcollab.Coordinator{Store: store, Transport: hub, Log: log}
	wsHandler := &ws.Handler{Hub: hub, Coordinator: coordinator, Log: log}

	analysisSvc := &appanalysis.Service{
		Engine: analyzer.New(log),
		Repo:   &memAnalysisRepo{},
		Clock:  sysClock{},
		Log:    log,
	}
	assistSvc := &appassist.Service{
		Repo:     memResponseRepo{},
		Analysis: analysisSvc,
		Clock:    sysClock{},
		Log:      log,
	}

	handler := NewRouter(analysisSvc, assistSvc, coordinator, wsHandler, Options{Log: log})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dialWs(t *testing.T, srv *httptest.Server, participant string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?participant=" + participant
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "upgrade must succeed through the middleware chain")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, wantType string) map[string]any {
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

// The upgrade goes through the logging and metrics wrappers, which must pass
// hijacking through to the underlying connection.
func TestWebsocketThroughRouter(t *testing.T) {
	srv := newWsServer(t)

	alice := dialWs(t, srv, "alice")
	require.NoError(t, alice.WriteJSON(map[string]any{
		"type": "create_session", "session_id": "s1", "code": "a=1", "language": "python",
	}))
	created := readEvent(t, alice, "session_created")
	assert.Equal(t, "s1", created["session_id"])

	bob := dialWs(t, srv, "bob")
	require.NoError(t, bob.WriteJSON(map[string]any{"type": "join_session", "session_id": "s1"}))
	joined := readEvent(t, bob, "session_joined")
	assert.Equal(t, "a=1", joined["code"])
}
