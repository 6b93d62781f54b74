// Package realtime pushes new messages to connected websocket clients.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
)

const (
	writeWait = 5 * time.Second
	sendQueue = 32
)

// EventMessage is the only event type pushed to clients.
const EventMessage = "message"

// Event is the JSON frame written to a client.
type Event struct {
	Type    string        `json:"type"`
	Message model.Message `json:"message"`
}

type closeFrame struct {
	code int
	text string
}

// client is one websocket connection opened by a session. Only its write
// loop writes to conn.
type client struct {
	sessionID string
	userID    string
	conn      *websocket.Conn
	send      chan Event
	closing   chan closeFrame
	done      chan struct{}
	once      sync.Once
}

func newClient(sessionID, userID string, conn *websocket.Conn) *client {
	return &client{
		sessionID: sessionID,
		userID:    userID,
		conn:      conn,
		send:      make(chan Event, sendQueue),
		closing:   make(chan closeFrame, 1),
		done:      make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the client's queue is full.
func (c *client) enqueue(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// shutdown asks the write loop to send a close frame and stop.
func (c *client) shutdown(code int, text string) {
	c.once.Do(func() {
		c.closing <- closeFrame{code: code, text: text}
	})
}

// Hub tracks websocket connections per session and user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
	logger   *logger.Logger
}

var _ model.Notifier = (*Hub)(nil)

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Publish queues msg for every connection of every user in audience. It does
// not wait for the writes. A client whose queue is full is dropped.
func (h *Hub) Publish(audience []string, msg model.Message) {
	want := make(map[string]struct{}, len(audience))
	for _, id := range audience {
		want[id] = struct{}{}
	}

	h.mu.RLock()
	targets := make([]*client, 0)
	for c := range h.clients {
		if _, ok := want[c.userID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	event := Event{Type: EventMessage, Message: msg}
	for _, c := range targets {
		if c.enqueue(event) {
			continue
		}
		h.logger.Warn("Realtime hub: client too slow, dropping connection",
			"session_id", c.sessionID,
			"user_id", c.userID,
			"message_id", msg.ID)
		h.remove(c)
		c.shutdown(websocket.CloseTryAgainLater, "too slow")
	}
}

// Serve upgrades the request and keeps the connection registered for the
// session until the client goes away or the session is disconnected.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Realtime hub: upgrade failed",
			"session_id", sessionID,
			"error", err.Error())
		return
	}

	c := newClient(sessionID, userID, conn)
	h.add(c)
	h.logger.Debug("Realtime hub: client connected",
		"session_id", sessionID,
		"user_id", userID)

	h.wg.Add(2)
	go h.writeLoop(c)
	go h.readLoop(c)
}

// Disconnect closes every connection opened by sessionID. Messages published
// after it returns are not delivered to them.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	closed := make([]*client, 0)
	for c := range h.clients {
		if c.sessionID == sessionID {
			delete(h.clients, c)
			closed = append(closed, c)
		}
	}
	h.mu.Unlock()

	for _, c := range closed {
		c.shutdown(websocket.CloseNormalClosure, "session ended")
	}
	if len(closed) > 0 {
		h.logger.Debug("Realtime hub: session disconnected",
			"session_id", sessionID,
			"connections", len(closed))
	}
}

// Connected reports how many connections userID has.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.userID == userID {
			n++
		}
	}
	return n
}

// CloseAll asks every client to disconnect.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.shutdown(websocket.CloseGoingAway, "server shutdown")
	}
}

// Wait blocks until all connection goroutines have finished.
func (h *Hub) Wait() {
	h.wg.Wait()
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				h.logger.Debug("Realtime hub: write failed",
					"session_id", c.sessionID,
					"error", err.Error())
				_ = c.conn.Close()
				return
			}
		case f := <-c.closing:
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(f.code, f.text), time.Now().Add(writeWait))
			// The read loop ends on the peer's close reply or on this deadline.
			_ = c.conn.SetReadDeadline(time.Now().Add(writeWait))
			return
		case <-c.done:
			return
		}
	}
}

func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer close(c.done)
	defer c.conn.Close()
	defer h.remove(c)

	// Clients only listen; reading drives control frames and detects close.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}
