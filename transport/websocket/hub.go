package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/robot-sim/game/engine"
	"github.com/wricardo/robot-sim/game/executor"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts before snapshots start being dropped.
	broadcastBuffer = 256

	// Per-client queue length.
	sendBuffer = 256

	// How long a non-snapshot event waits for room in the broadcast queue.
	eventTimeout = time.Second
)

// Event names
const (
	EventSnapshot = "snapshot"
	EventSuccess  = "success"
	EventRunEnd   = "run_end"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Renderers are served from other origins during development
		return true
	},
}

// Message is one event pushed to renderers
type Message struct {
	SessionID string              `json:"session_id"`
	Event     string              `json:"event"`
	State     *engine.State       `json:"state,omitempty"`
	Report    *executor.RunReport `json:"report,omitempty"`
	Data      interface{}         `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// Hub maintains the set of active clients and broadcasts messages. Only the
// Run goroutine touches the client registry.
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool

	// Outbound messages for session subscribers
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	counts  chan countRequest
	done    chan struct{}
	dropped atomic.Uint64
	logger  zerolog.Logger
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the hub logger
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates a new WebSocket hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop and closes every client when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.sessions {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			req.reply <- len(h.sessions[req.sessionID])
		}
	}
}

// ServeWS upgrades the request and subscribes the connection to a session.
// A non-nil initial state is sent before any broadcast.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial *engine.State) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("session", sessionID).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}

	if initial != nil {
		if data, err := json.Marshal(&Message{SessionID: sessionID, Event: EventSnapshot, State: initial}); err == nil {
			client.send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// ClientCount returns how many clients are subscribed to a session
func (h *Hub) ClientCount(sessionID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{sessionID: sessionID, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Dropped returns how many messages were discarded because the hub was behind
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// SnapshotUpdated broadcasts a per-tick readout
func (h *Hub) SnapshotUpdated(sessionID string, state engine.State) {
	h.publish(&Message{SessionID: sessionID, Event: EventSnapshot, State: &state})
}

// GoalReached broadcasts the one-time success event of a run
func (h *Hub) GoalReached(sessionID string, state engine.State) {
	h.publish(&Message{SessionID: sessionID, Event: EventSuccess, State: &state})
}

// RunEnded broadcasts a finished run's report
func (h *Hub) RunEnded(sessionID string, report executor.RunReport) {
	h.publish(&Message{SessionID: sessionID, Event: EventRunEnd, Report: &report})
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data interface{}) {
	h.publish(&Message{SessionID: sessionID, Event: event, Data: data})
}

// publish drops per-tick snapshots when the hub is behind. Every other event
// waits up to eventTimeout for room so one-time events like success reach
// subscribers.
func (h *Hub) publish(message *Message) {
	if message.Event == EventSnapshot {
		select {
		case h.broadcast <- message:
		default:
			h.drop(message)
		}
		return
	}

	timer := time.NewTimer(eventTimeout)
	defer timer.Stop()
	select {
	case h.broadcast <- message:
	case <-h.done:
		h.drop(message)
	case <-timer.C:
		h.logger.Warn().Str("session", message.SessionID).Str("event", message.Event).Msg("hub stalled, event dropped")
		h.drop(message)
	}
}

func (h *Hub) drop(message *Message) {
	n := h.dropped.Add(1)
	h.logger.Debug().Str("session", message.SessionID).Str("event", message.Event).Uint64("dropped", n).Msg("hub busy, message dropped")
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.logger.Debug().
		Str("session", client.sessionID).
		Int("clients", len(h.sessions[client.sessionID])).
		Msg("client registered")
}

// unregisterClient removes a client from a session
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.sessions[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty sessions
			if len(clients) == 0 {
				delete(h.sessions, client.sessionID)
			}

			h.logger.Debug().
				Str("session", client.sessionID).
				Int("clients", len(clients)).
				Msg("client unregistered")
		}
	}
}

// broadcastMessage sends a message to all clients in a session
func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.sessions[message.SessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Str("event", message.Event).Msg("failed to marshal broadcast message")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Renderers only listen; incoming frames keep the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("session", c.sessionID).Msg("websocket read error")
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
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
				// The hub closed the channel
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
