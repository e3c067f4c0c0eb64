package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/courtside/league-system/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// EventHandler processes a single inbound client frame. It runs on the
// client's read goroutine.
type EventHandler func(client *Client, event string, data json.RawMessage)

// Client is one authenticated websocket connection. UserID and Role come
// from the verified handshake token.
type Client struct {
	ID     string
	UserID int
	Role   models.UserRole

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms is owned by the hub and only touched under its lock.
	rooms map[string]bool

	mu     sync.Mutex
	closed bool
}

func NewClient(id string, userID int, role models.UserRole, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Role:   role,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		rooms:  make(map[string]bool),
	}
}

// Send marshals an event frame and queues it for this client only.
func (c *Client) Send(event string, payload interface{}) {
	messageBytes, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		return
	}
	c.enqueue(messageBytes)
}

func (c *Client) enqueue(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		// Slow consumer: drop rather than block the hub.
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReadPump reads frames until the connection drops, dispatching each parsed
// event to handle. Malformed frames get an errorMessage back.
func (c *Client) ReadPump(handle EventHandler) {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
			c.Send(EventErrorMessage, "malformed message")
			continue
		}
		handle(c, msg.Event, msg.Data)
	}
}

// WritePump drains the send queue onto the connection and keeps it alive
// with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
