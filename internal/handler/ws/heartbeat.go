package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	applogger "IntraCast/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait = 5 * time.Second
	readLimit = 512
)

// Hub keeps the set of live websocket connections and pushes a periodic
// heartbeat to each. The heartbeat is advisory only: it tells clients the
// engine is alive and that re-polling the REST endpoints may be worthwhile.
// No signal payloads travel over this channel.
type Hub struct {
	l        *applogger.Logger
	interval time.Duration
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub(l *applogger.Logger, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{
		l:        l,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: map[*websocket.Conn]bool{},
	}
}

// Run broadcasts the heartbeat until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.broadcast(map[string]string{"message": "update"})
		}
	}
}

// Serve upgrades the request and tracks the connection until the peer
// disconnects.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return err
	}

	h.add(conn)
	h.l.Debug("websocket client connected", applogger.Int("clients", h.count()))

	// Drain the read side so close frames and pings are processed; clients
	// are not expected to send anything meaningful.
	conn.SetReadLimit(readLimit)
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

func (h *Hub) broadcast(payload interface{}) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteJSON(payload); err != nil {
			h.remove(c)
		}
	}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	if h.conns[c] {
		delete(h.conns, c)
		_ = c.Close()
	}
	h.mu.Unlock()
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		_ = c.Close()
		delete(h.conns, c)
	}
	h.mu.Unlock()
}
