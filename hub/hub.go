// Package hub tracks live websocket connections so pushes reach them and
// every connection is closed on shutdown.
package hub

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Conn is one registered websocket connection. Room groups the connections
// of a client session.
type Conn struct {
	ws   *websocket.Conn
	Send chan []byte
	Room string
}

var ErrStopped = errors.New("hub stopped")

type Hub struct {
	upgrader websocket.Upgrader
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger

	mu    sync.Mutex
	rooms map[string]map[*Conn]bool
}

// New returns a hub. checkOrigin may be nil to accept same-origin requests
// only.
func New(checkOrigin func(*http.Request) bool, logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		done:     make(chan struct{}),
		logger:   logger,
		rooms:    make(map[string]map[*Conn]bool),
	}
}

// Stop closes every connection. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		close(h.done)
		n := 0
		for room, conns := range h.rooms {
			for c := range conns {
				close(c.Send)
				if c.ws != nil {
					_ = c.ws.Close()
				}
				n++
			}
			delete(h.rooms, room)
		}
		h.logger.Info("websocket hub stopped", "closed", n)
	})
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Register adds c to its room. It reports false once the hub is stopped.
func (h *Hub) Register(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped() {
		return false
	}
	if h.rooms[c.Room] == nil {
		h.rooms[c.Room] = make(map[*Conn]bool)
	}
	h.rooms[c.Room][c] = true
	return true
}

// Unregister removes c and closes its send channel. Unknown connections are
// ignored.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Conn) {
	conns := h.rooms[c.Room]
	if !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Deliver queues data for c. A connection that cannot keep up is dropped.
func (h *Hub) Deliver(c *Conn, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.rooms[c.Room][c] {
		return false
	}
	return h.deliverLocked(c, data)
}

func (h *Hub) deliverLocked(c *Conn, data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		h.logger.Warn("dropping slow websocket client", "room", c.Room)
		h.removeLocked(c)
		return false
	}
}

// Len reports the number of registered connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, conns := range h.rooms {
		n += len(conns)
	}
	return n
}

// Upgrade switches the request to a websocket and registers it in room. The
// connection does not read or write until Start.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, room string) (*Conn, error) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{ws: ws, Send: make(chan []byte, sendBuffer), Room: room}
	if !h.Register(c) {
		_ = ws.Close()
		return nil, ErrStopped
	}
	return c, nil
}

// Start runs the connection pumps. onClose runs once the peer goes away or
// the hub drops the connection.
func (h *Hub) Start(c *Conn, onClose func()) {
	go h.writePump(c)
	go h.readPump(c, onClose)
}

func (h *Hub) writePump(c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; live views are push only.
func (h *Hub) readPump(c *Conn, onClose func()) {
	defer func() {
		if onClose != nil {
			onClose()
		}
		h.Unregister(c)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(512)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", "room", c.Room, "error", err)
			}
			return
		}
	}
}
