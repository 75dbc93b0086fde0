package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/screeps-world-mcp/game/gateway"
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

	// Events buffered between the gateway and the hub loop.
	eventBuffer = 256
)

// EventCall is the event name of every call notification.
const EventCall = "gateway_call"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame sent to feed subscribers.
type Message struct {
	Event string             `json:"event"`
	Call  *gateway.CallEvent `json:"call,omitempty"`
}

// Client is one feed subscriber. An empty filter receives every call, any
// other value only calls to that API path.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	filter string
}

// Hub fans gateway call events out to websocket subscribers. The subscriber
// map is owned by the Run goroutine.
type Hub struct {
	logger *zap.Logger

	// Registered clients by path filter
	topics map[string]map[*Client]bool

	broadcast  chan gateway.CallEvent
	register   chan *Client
	unregister chan *Client
	counts     chan chan int
	done       chan struct{}
}

var _ gateway.Observer = (*Hub)(nil)

// NewHub creates a hub. A nil logger is replaced with a no-op logger.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan gateway.CallEvent, eventBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done. A hub cannot
// be restarted.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.topics {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case reply := <-h.counts:
			reply <- h.clientCount()
		}
	}
}

// ObserveCall queues a call event for delivery. It never blocks the gateway;
// events are dropped when the buffer is full.
func (h *Hub) ObserveCall(event gateway.CallEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("call feed buffer full, dropping event", zap.String("call_id", event.ID))
	}
}

// ClientCount returns the number of connected subscribers. Run must be active.
func (h *Hub) ClientCount(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case h.counts <- reply:
	case <-h.done:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ServeWS upgrades the request and subscribes it to calls matching filter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, filter string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		filter: filter,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) registerClient(client *Client) {
	if h.topics[client.filter] == nil {
		h.topics[client.filter] = make(map[*Client]bool)
	}
	h.topics[client.filter][client] = true

	h.logger.Debug("feed subscriber registered",
		zap.String("filter", client.filter),
		zap.Int("subscribers", len(h.topics[client.filter])))
}

func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.topics[client.filter]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.topics, client.filter)
			}

			h.logger.Debug("feed subscriber unregistered",
				zap.String("filter", client.filter),
				zap.Int("subscribers", len(clients)))
		}
	}
}

func (h *Hub) clientCount() int {
	n := 0
	for _, clients := range h.topics {
		n += len(clients)
	}
	return n
}

// broadcastEvent delivers to unfiltered subscribers and to those filtering on
// the event's path.
func (h *Hub) broadcastEvent(event gateway.CallEvent) {
	data, err := json.Marshal(Message{Event: EventCall, Call: &event})
	if err != nil {
		h.logger.Error("failed to marshal call event", zap.Error(err))
		return
	}

	for _, filter := range topicsFor(event) {
		for client := range h.topics[filter] {
			select {
			case client.send <- data:
			default:
				// Slow subscriber.
				h.unregisterClient(client)
			}
		}
	}
}

func topicsFor(event gateway.CallEvent) []string {
	if event.Path == "" {
		return []string{""}
	}
	return []string{"", event.Path}
}

// readPump discards inbound frames and keeps the read deadline moving.
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
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", zap.Error(err))
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
