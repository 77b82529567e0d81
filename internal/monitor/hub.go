// Package monitor provides a read-only WebSocket hub, served at /ws,
// that fans out auction events passed to Hub.Broadcast. The server
// itself does not call Broadcast anywhere, so connected clients receive
// only keepalive pings. It is strictly observational: nothing it receives from a client
// mutates server state (spec.md's core leaves no room for an
// inbound-command channel other than the TCP wire protocol).
//
// Adapted from the teacher's internal/rpc/websocket.go hub: the
// register/unregister/broadcast channel trio, a per-client buffered
// send channel, and the ping/pong keepalive in writePump are kept
// close to the original; subscriptions are dropped since every client
// here wants every auction event, and the inbound readPump exists only
// to notice disconnects and drive the pong deadline.
package monitor

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forgehouse/auctiond/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventType identifies a kind of auction activity broadcast to monitor
// clients.
type EventType string

const (
	EventAuctionCreated  EventType = "auction_created"
	EventBidPlaced       EventType = "bid_placed"
	EventAuctionSettled  EventType = "auction_settled"
	EventConnectionCount EventType = "connection_count"
)

// Event is one message sent down the WebSocket feed.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans auction events out to every connected monitor client.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan *Event
	register   chan *client
	unregister chan *client
	log        *logging.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub. Callers must run Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		log:        logging.GetDefault().Component("monitor"),
	}
}

// Run is the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug("monitor client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Debug("monitor client disconnected", "clients", len(h.clients))

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal monitor event", "error", err)
				continue
			}

			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, c)
					close(c.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues event for delivery to every connected client.
func (h *Hub) Broadcast(eventType EventType, data interface{}) {
	event := &Event{Type: eventType, Data: data, Timestamp: time.Now().Unix()}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("monitor broadcast channel full, dropping event", "type", eventType)
	}
}

// ClientCount reports the number of connected monitor clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades r to a WebSocket and registers the resulting
// client with the hub. Mount it at /ws.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256), hub: h}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
