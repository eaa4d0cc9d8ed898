// Package events broadcasts schedule change notifications to websocket
// subscribers. Delivery is best-effort: a regeneration never fails or blocks
// because a subscriber is slow or gone.
package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/airwave-tv/airwave/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client queue; a client that falls this far
	// behind is dropped rather than allowed to stall the hub
	sendBuffer = 16
)

// Message is the envelope sent to every subscriber
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// ScheduleChangedData is the payload for schedule_changed messages
type ScheduleChangedData struct {
	ChannelID uint `json:"channel_id"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans schedule change events out to connected websocket clients
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
	once       sync.Once
}

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			logger.Log.Debug().
				Int("clients", len(h.clients)).
				Msg("Event subscriber connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				logger.Log.Debug().
					Int("clients", len(h.clients)).
					Msg("Event subscriber disconnected")
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					logger.Log.Warn().Msg("Dropping slow event subscriber")
				}
			}
		}
	}
}

// Stop shuts the hub down and disconnects all subscribers
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// ScheduleChanged broadcasts a schedule_changed event for the channel.
// Implements the schedule manager's notifier contract.
func (h *Hub) ScheduleChanged(channelID uint) {
	h.publish("schedule_changed", ScheduleChangedData{ChannelID: channelID})
}

func (h *Hub) publish(msgType string, data interface{}) {
	payload, err := json.Marshal(Message{
		Type: msgType,
		Data: data,
		Time: time.Now().UTC(),
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("type", msgType).
			Msg("Failed to marshal event")
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		logger.Log.Warn().
			Str("type", msgType).
			Msg("Event broadcast queue full, dropping event")
	}
}

// HandleWebSocket upgrades the request and subscribes the connection to
// schedule change events
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to upgrade websocket connection")
		return
	}

	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- cl

	go cl.writePump()
	go cl.readPump()
}

// readPump drains the connection so pings are answered and closes are seen.
// Subscribers never send application data.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) // nolint:errcheck
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
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) // nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) // nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) // nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
