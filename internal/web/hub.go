package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

const writeWait = 5 * time.Second

// Hub fans tick updates out to connected websocket clients. It is a sink:
// Push never blocks on a slow browser.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	bufferSize int
	obs        ports.Observability
	upgrader   websocket.Upgrader
}

type client struct {
	conn   *websocket.Conn
	buf    *frameBuffer
	cancel context.CancelFunc
}

func NewHub(bufferSize int, obs ports.Observability) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		bufferSize: bufferSize,
		obs:        obs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) Name() string { return "websocket" }

// Push encodes the update once and queues it for every client.
func (h *Hub) Push(u domain.Update) error {
	frame, err := json.Marshal(u)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.buf.Set(frame)
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams updates until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logError("ws_upgrade_failed", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{conn: conn, cancel: cancel}
	c.buf = newFrameBuffer(ctx, h.bufferSize, func(missed int) {
		if h.obs != nil {
			h.obs.LogInfo("ws_frames_dropped", ports.Field{Key: "missed", Value: missed})
		}
	})

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.cancel()
		_ = c.conn.Close()
	}
}

// readLoop drains control frames; the feed is one-way.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer h.remove(c)
	for {
		frame, ok := c.buf.Next()
		if !ok {
			return
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.cancel()
		_ = c.conn.Close()
	}
}

func (h *Hub) logError(msg string, err error) {
	if h.obs != nil {
		h.obs.LogError(msg, err)
	}
}
