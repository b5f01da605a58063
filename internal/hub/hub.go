// Package hub pushes JSON events to websocket subscribers of an owner.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/httpserver/mw"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// originChecker accepts requests without an Origin (non-browser clients),
// then the same origin when allowedHosts is empty, else any allowed host.
func originChecker(allowedHosts []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if len(allowedHosts) == 0 {
			return strings.EqualFold(u.Host, r.Host)
		}
		for _, pattern := range allowedHosts {
			if mw.MatchHost(u.Hostname(), pattern) {
				return true
			}
		}
		return false
	}
}

type message struct {
	owner   domain.Owner
	payload []byte
}

type client struct {
	conn  *websocket.Conn
	owner domain.Owner
	send  chan []byte
}

// Hub owns every subscriber connection. Only Run touches the client set
// for writes.
type Hub struct {
	logger     logger.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan message
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New creates a hub. Browser origins must match allowedHosts, or the
// request host when the list is empty.
func New(log logger.Logger, allowedHosts []string) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedHosts),
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run dispatches until ctx is cancelled, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("ws client connected", logger.String("owner", c.owner.String()))

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			for _, c := range h.subscribers(msg.owner) {
				select {
				case c.send <- msg.payload:
				default:
					h.logger.Warn("ws client too slow, disconnecting",
						logger.String("owner", c.owner.String()))
					h.drop(c)
				}
			}

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) subscribers(owner domain.Owner) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.owner == owner {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish queues v for every subscriber of owner. It never blocks: when
// the queue is full the event is dropped.
func (h *Hub) Publish(owner domain.Owner, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("ws event not encodable", logger.Error(err))
		return
	}

	select {
	case h.broadcast <- message{owner: owner, payload: payload}:
	default:
		h.logger.Warn("ws broadcast queue full, event dropped",
			logger.String("owner", owner.String()))
	}
}

// Clients returns the number of connected subscribers
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Serve upgrades the request and subscribes it to owner's events. It
// returns once the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, owner domain.Owner) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, owner: owner, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go c.writePump()
	c.readPump()

	select {
	case h.unregister <- c:
	case <-h.done:
	}
	return nil
}

// readPump only consumes control frames; subscribers never send data
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
