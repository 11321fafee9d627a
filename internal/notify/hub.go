package notify

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans toasts out to every connected admin client. Sends are
// non-blocking: a client that cannot keep up drops messages instead of
// stalling the broadcast.
type Hub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:  logger.With().Str("component", "notify").Logger(),
		clients: make(map[*websocket.Conn]*client),
	}
}

// Register adds a connection to the hub and starts its pumps. The connection
// is owned by the hub from this point on.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// Notify broadcasts one toast to all connected clients.
func (h *Hub) Notify(t Toast) {
	data, err := json.Marshal(t)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal toast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.conn]; ok {
		delete(h.clients, c.conn)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.unregister(c)
			return
		}
	}
}

// readPump drains incoming frames so pings are answered and a closed peer is
// noticed promptly. Clients never send application data.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}
