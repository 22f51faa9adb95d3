// Package feed broadcasts settlement events to websocket subscribers.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	readLimit    = 4096
)

// Hub tracks subscribers and fans events out to them. A subscriber that
// cannot keep up is disconnected rather than slowing the publisher.
type Hub struct {
	upgrader websocket.Upgrader
	log      *slog.Logger
	// OnClients, when set, is called with the subscriber count after each
	// change.
	OnClients func(int)

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

type client struct {
	id       string
	conn     *websocket.Conn
	accounts []string
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) wants(accounts []string) bool {
	if len(c.accounts) == 0 {
		return true
	}
	for _, a := range accounts {
		if slices.Contains(c.accounts, a) {
			return true
		}
	}
	return false
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and subscribes the connection. Repeated
// account query parameters restrict the events delivered to those
// involving one of the accounts.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("feed upgrade failed", "error", err)
		return
	}
	c := &client{
		id:       uuid.NewString(),
		conn:     conn,
		accounts: r.URL.Query()["account"],
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.notify(n)
	h.log.Debug("feed subscriber connected", "id", c.id, "accounts", c.accounts)

	go h.readLoop(c)
	go h.writeLoop(c)
}

// readLoop discards client messages and watches for the connection going
// away.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("feed read failed", "id", c.id, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("feed send failed", "id", c.id, "error", err)
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()
	c.stop()
	if ok {
		h.notify(n)
		h.log.Debug("feed subscriber left", "id", c.id)
	}
}

func (h *Hub) notify(n int) {
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

// Publish sends v as JSON to every subscriber interested in one of
// accounts.
func (h *Hub) Publish(v any, accounts ...string) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("failed to marshal feed event", "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		if !c.wants(accounts) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow feed subscriber", "id", c.id)
		h.remove(c)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()
	for _, c := range clients {
		c.stop()
	}
	h.notify(0)
}
