package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wondersforge/wonders-server-go/internal/config"
	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

var wsAssignments = map[string]state.WonderAssignment{
	"ada":   {WonderID: "giza", Side: cards.SideA},
	"brook": {WonderID: "rhodes", Side: cards.SideA},
	"cyd":   {WonderID: "olympia", Side: cards.SideB},
}

func startHub(t *testing.T) (*httptest.Server, *Hub, *table.Manager) {
	t.Helper()
	manager := newManager(t)
	_, err := manager.Create("g1", []string{"ada", "brook", "cyd"}, wsAssignments)
	require.NoError(t, err)

	cfg := config.WebSocketConfig{AllowedOrigins: []string{"*"}}
	hub := NewHub(manager, cfg.AllowedOrigins, zap.NewNop())
	srv := httptest.NewServer(NewWebSocketHandler(hub, cfg, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, hub, manager
}

// dial connects and consumes the welcome message.
func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := read(t, conn)
	require.Equal(t, MessageWelcome, welcome.Type)
	require.NotEmpty(t, welcome.ClientID)
	return conn, welcome.ClientID
}

func read(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func subscribe(t *testing.T, conn *websocket.Conn, gameID string) Envelope {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Envelope{Type: MessageSubscribe, GameID: gameID}))
	return read(t, conn)
}

func TestSubscribeSendsCurrentState(t *testing.T) {
	srv, hub, manager := startHub(t)
	conn, _ := dial(t, srv)

	env := subscribe(t, conn, "g1")
	require.Equal(t, MessageState, env.Type)
	require.NotNil(t, env.Game)

	snap, err := manager.State("g1")
	require.NoError(t, err)
	assert.Equal(t, snap.Checksum, env.Game.Checksum)
	assert.Equal(t, snap.State.Version, env.Game.Version)
	assert.Equal(t, 1, hub.Subscribers("g1"))
}

func TestSubscribeUnknownGame(t *testing.T) {
	srv, hub, _ := startHub(t)
	conn, _ := dial(t, srv)

	env := subscribe(t, conn, "nope")
	assert.Equal(t, MessageError, env.Type)
	assert.Equal(t, "NotFound", env.Code)
	assert.Zero(t, hub.Subscribers("nope"))
}

func TestSubmitBroadcastsToSubscribers(t *testing.T) {
	srv, _, manager := startHub(t)
	player, _ := dial(t, srv)
	watcher, _ := dial(t, srv)

	initial := subscribe(t, player, "g1")
	subscribe(t, watcher, "g1")

	ada, _ := initial.Game.State.Player("ada")
	action, err := state.MarshalAction(state.DiscardCard{PlayerID: "ada", CardInstanceID: ada.Hand[0]})
	require.NoError(t, err)
	version := initial.Game.Version
	require.NoError(t, player.WriteJSON(Envelope{
		Type:            MessageSubmit,
		GameID:          "g1",
		ExpectedVersion: &version,
		Action:          action,
	}))

	for _, conn := range []*websocket.Conn{player, watcher} {
		env := read(t, conn)
		require.Equal(t, MessageState, env.Type)
		assert.Equal(t, version+1, env.Game.Version)
		assert.Contains(t, env.Game.State.DiscardPile, ada.Hand[0])
	}

	snap, err := manager.State("g1")
	require.NoError(t, err)
	assert.Equal(t, version+1, snap.State.Version)
}

func TestSubmitErrorsGoToSender(t *testing.T) {
	srv, _, _ := startHub(t)
	conn, _ := dial(t, srv)
	subscribe(t, conn, "g1")

	stale := -5
	action, err := state.MarshalAction(state.DiscardCard{PlayerID: "ada", CardInstanceID: "missing_1"})
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(Envelope{Type: MessageSubmit, GameID: "g1", Action: action}))
	env := read(t, conn)
	assert.Equal(t, MessageError, env.Type)
	assert.Equal(t, "InvalidArgument", env.Code)

	require.NoError(t, conn.WriteJSON(Envelope{Type: MessageSubmit, GameID: "g1", ExpectedVersion: &stale, Action: action}))
	env = read(t, conn)
	assert.Equal(t, "Aborted", env.Code)

	require.NoError(t, conn.WriteJSON(Envelope{Type: MessageSubmit, GameID: "g1", Action: []byte(`{"type":"NEXT_AGE"}`)}))
	env = read(t, conn)
	assert.Equal(t, "InvalidArgument", env.Code)
	assert.Contains(t, env.Message, "issued by the engine")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	env = read(t, conn)
	assert.Equal(t, "malformed message", env.Message)

	require.NoError(t, conn.WriteJSON(Envelope{Type: "dance"}))
	env = read(t, conn)
	assert.Equal(t, MessageError, env.Type)
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	srv, hub, _ := startHub(t)
	a, _ := dial(t, srv)
	b, _ := dial(t, srv)
	subscribe(t, a, "g1")
	subscribe(t, b, "g1")
	require.Equal(t, 2, hub.Subscribers("g1"))

	require.NoError(t, a.WriteJSON(Envelope{Type: MessageUnsubscribe, GameID: "g1"}))
	assert.Eventually(t, func() bool { return hub.Subscribers("g1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("g1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://play.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://play.example.com")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}

func TestHealthz(t *testing.T) {
	srv, _, _ := startHub(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
