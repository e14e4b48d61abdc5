// Package ws fans department events out to connected staff over
// websockets. Every connection is bound to the role channel of the
// authenticated user; there is no client-driven subscription protocol.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Message is the frame written to clients.
type Message struct {
	Kind      string          `json:"kind"`
	VisitID   string          `json:"visitId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Client is a single websocket connection bound to a user and a set of
// channels (role:<role> plus user:<id>).
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	UserID   string
	Role     string
	channels map[string]bool
}

// Hub tracks connected clients per channel and broadcasts frames to
// them. Slow clients are dropped rather than allowed to block the
// department feed.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]bool
	log      zerolog.Logger
	closed   bool
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*Client]bool),
		log:      log.With().Str("component", "ws").Logger(),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.send)
		return
	}
	for ch := range c.channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[*Client]bool)
		}
		h.channels[ch][c] = true
	}
	h.log.Debug().Str("user_id", c.UserID).Str("role", c.Role).Msg("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range c.channels {
		if clients, ok := h.channels[ch]; ok {
			if clients[c] {
				delete(clients, c)
				if len(clients) == 0 {
					delete(h.channels, ch)
				}
			}
		}
	}
	h.log.Debug().Str("user_id", c.UserID).Msg("client disconnected")
}

// Broadcast sends a frame to every client subscribed to any of the
// given channels. A client on several matching channels receives the
// frame once.
func (h *Hub) Broadcast(msg Message, chans ...string) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("kind", msg.Kind).Msg("marshal broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Client]bool)
	for _, ch := range chans {
		for c := range h.channels[ch] {
			if seen[c] {
				continue
			}
			seen[c] = true
			select {
			case c.send <- data:
			default:
				// Client too slow, drop the frame.
				h.log.Warn().Str("user_id", c.UserID).Str("kind", msg.Kind).Msg("dropping frame for slow client")
			}
		}
	}
}

// ClientCount reports how many clients are subscribed to a channel.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Close disconnects every client. Used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	seen := make(map[*Client]bool)
	for _, clients := range h.channels {
		for c := range clients {
			if !seen[c] {
				seen[c] = true
				close(c.send)
			}
		}
	}
	h.channels = make(map[string]map[*Client]bool)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func (c *Client) readPump() {
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
		// Inbound frames are ignored; the socket is server-push only.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
