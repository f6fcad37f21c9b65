package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wondersforge/wonders-server-go/internal/config"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 64
)

// Message types exchanged over the socket.
const (
	MessageWelcome     = "welcome"
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
	MessageSubmit      = "submit"
	MessageState       = "state"
	MessageError       = "error"
)

// Envelope is every message in both directions.
type Envelope struct {
	Type            string          `json:"type"`
	ClientID        string          `json:"clientId,omitempty"`
	GameID          string          `json:"gameId,omitempty"`
	ExpectedVersion *int            `json:"expectedVersion,omitempty"`
	Action          json.RawMessage `json:"action,omitempty"`
	Game            *GameView       `json:"game,omitempty"`
	Code            string          `json:"code,omitempty"`
	Message         string          `json:"message,omitempty"`
}

// wsClient is one socket connection.
type wsClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans game updates out to the sockets subscribed to each game and
// forwards their submissions to the table manager.
type Hub struct {
	manager  *table.Manager
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	clients     map[*wsClient]bool
	subscribers map[string]map[*wsClient]bool
}

// NewHub creates a hub and subscribes it to every update of manager.
func NewHub(manager *table.Manager, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		manager:     manager,
		logger:      logger,
		clients:     make(map[*wsClient]bool),
		subscribers: make(map[string]map[*wsClient]bool),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	manager.OnUpdate(h.Broadcast)
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		zap.String("client_id", c.id),
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("clients", total),
	)
	c.enqueue(Envelope{Type: MessageWelcome, ClientID: c.id})

	go c.writePump()
	go c.readPump()
}

// Broadcast sends snap to every subscriber of its game.
func (h *Hub) Broadcast(snap table.Snapshot) {
	view := viewOf(snap)
	data, err := json.Marshal(Envelope{Type: MessageState, GameID: snap.ID, Game: &view})
	if err != nil {
		h.logger.Error("failed to encode state", zap.String("game_id", snap.ID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subscribers[snap.ID] {
		c.deliver(data)
	}
}

// Subscribers returns how many sockets follow gameID.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[gameID])
}

func (h *Hub) subscribe(c *wsClient, gameID string) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	subs, ok := h.subscribers[gameID]
	if !ok {
		subs = make(map[*wsClient]bool)
		h.subscribers[gameID] = subs
	}
	subs[c] = true
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(c *wsClient, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c, gameID)
}

func (h *Hub) dropLocked(c *wsClient, gameID string) {
	subs := h.subscribers[gameID]
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.subscribers, gameID)
	}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for gameID := range h.subscribers {
		h.dropLocked(c, gameID)
	}
	close(c.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client disconnected",
		zap.String("client_id", c.id),
		zap.Int("clients", total),
	)
}

func (h *Hub) handle(c *wsClient, env Envelope) {
	switch env.Type {
	case MessageSubscribe:
		if env.GameID == "" {
			c.fail(env.GameID, "InvalidArgument", "gameId is required")
			return
		}
		snap, err := h.manager.State(env.GameID)
		if err != nil {
			c.failWith(env.GameID, err)
			return
		}
		h.subscribe(c, env.GameID)
		view := viewOf(snap)
		c.enqueue(Envelope{Type: MessageState, GameID: env.GameID, Game: &view})

	case MessageUnsubscribe:
		h.unsubscribe(c, env.GameID)

	case MessageSubmit:
		if env.GameID == "" {
			c.fail(env.GameID, "InvalidArgument", "gameId is required")
			return
		}
		a, err := state.UnmarshalAction(env.Action)
		if err != nil {
			c.fail(env.GameID, "InvalidArgument", err.Error())
			return
		}
		expected := table.AnyVersion
		if env.ExpectedVersion != nil {
			expected = *env.ExpectedVersion
		}
		// subscribers, the sender included, hear about the new state via Broadcast
		if _, err := h.manager.Submit(env.GameID, expected, a); err != nil {
			c.failWith(env.GameID, err)
		}

	default:
		c.fail(env.GameID, "InvalidArgument", "unknown message type "+env.Type)
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.fail("", "InvalidArgument", "malformed message")
			continue
		}
		c.hub.handle(c, env)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver queues data without blocking. Callers hold the hub lock.
func (c *wsClient) deliver(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket send buffer full, dropping message", zap.String("client_id", c.id))
	}
}

func (c *wsClient) enqueue(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.hub.logger.Error("failed to encode message", zap.Error(err))
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.hub.clients[c] {
		c.deliver(data)
	}
}

func (c *wsClient) fail(gameID, code, message string) {
	c.enqueue(Envelope{Type: MessageError, GameID: gameID, Code: code, Message: message})
}

func (c *wsClient) failWith(gameID string, err error) {
	c.fail(gameID, statusCode(err).String(), err.Error())
}

// NewWebSocketHandler routes /ws to the hub behind panic recovery and CORS.
func NewWebSocketHandler(hub *Hub, cfg config.WebSocketConfig, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(cors(mux))
}

// NewWebSocketServer builds the HTTP server for the websocket endpoint.
func NewWebSocketServer(hub *Hub, cfg config.WebSocketConfig, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           NewWebSocketHandler(hub, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
