package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studycircle-backend/internal/domain"
	redisrepo "studycircle-backend/internal/repository/redis"
	"studycircle-backend/pkg/logger"
	"studycircle-backend/pkg/metrics"
)

// CallEventHub fans call events out to WebSocket clients. Each circle
// has its own client set backed by one Redis pub/sub subscription, so
// every instance of the service delivers events published by any other.
type CallEventHub struct {
	circles map[uuid.UUID]map[*Client]bool

	events  *redisrepo.EventPublisher
	metrics *metrics.Metrics

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *domain.CallEvent
}

// Client represents one WebSocket subscriber
type Client struct {
	hub      *CallEventHub
	conn     *websocket.Conn
	send     chan []byte
	userID   uuid.UUID
	circleID uuid.UUID
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev, restrict in production
	},
}

// NewCallEventHub creates a new hub and starts its event loop.
// events and m may be nil; the hub then only fans out locally queued
// broadcasts.
func NewCallEventHub(events *redisrepo.EventPublisher, m *metrics.Metrics) *CallEventHub {
	hub := &CallEventHub{
		circles:    make(map[uuid.UUID]map[*Client]bool),
		events:     events,
		metrics:    m,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *domain.CallEvent, 256),
	}

	go hub.run()

	return hub
}

func (h *CallEventHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.circles[client.circleID] == nil {
				h.circles[client.circleID] = make(map[*Client]bool)

				go h.subscribeToCircle(client.circleID)
			}
			h.circles[client.circleID][client] = true
			h.mu.Unlock()

			if h.metrics != nil {
				h.metrics.IncrementWebSocketConnections()
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.circles[client.circleID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)

					if len(clients) == 0 {
						delete(h.circles, client.circleID)
					}

					if h.metrics != nil {
						h.metrics.DecrementWebSocketConnections()
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Evicting a slow client mutates the client set, so this
			// branch takes the write lock like register/unregister do.
			h.mu.Lock()
			if clients, ok := h.circles[event.CircleID]; ok {
				payload, _ := json.Marshal(event)
				for client := range clients {
					select {
					case client.send <- payload:
						if h.metrics != nil {
							h.metrics.RecordWebSocketMessage(event.Type, "out")
						}
					default:
						close(client.send)
						delete(clients, client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// subscribeToCircle pumps the circle's Redis channel into the hub.
// Exits when the subscription closes.
func (h *CallEventHub) subscribeToCircle(circleID uuid.UUID) {
	if h.events == nil {
		return
	}

	ctx := context.Background()

	sub := h.events.Subscribe(ctx, circleID)
	if sub == nil {
		logger.Log.Warn("call event subscription skipped, redis degraded",
			zap.String("circle_id", circleID.String()),
		)
		return
	}
	defer sub.Close()

	for event := range sub.Events(ctx) {
		h.broadcast <- event
	}
}

// ServeWS upgrades the connection and registers the client for a
// circle's call events
// GET /v1/ws/calls?circle_id=<id>
func (h *CallEventHub) ServeWS(c *gin.Context) {
	circleIDStr := c.Query("circle_id")
	if circleIDStr == "" {
		c.JSON(400, gin.H{"error": "circle_id required"})
		return
	}

	circleID, err := uuid.Parse(circleIDStr)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid circle_id"})
		return
	}

	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}

	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		c.JSON(500, gin.H{"error": "invalid user_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   userID,
		circleID: circleID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the socket so pings and close frames are handled.
// Call events flow one way; inbound payloads are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// writePump writes events to the WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			if err := w.Close(); err != nil {
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
