package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong after sending a ping; a peer that
	// misses one probe interval is terminated.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1024
	sendBufferSize = 32
)

// Client is one websocket connection. A client may be in several rooms; its
// lifetime is the connection's lifetime.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// controlMessage is what clients may send: join or leave a room.
type controlMessage struct {
	Action  string `json:"action"` // "join" or "leave"
	EventID string `json:"event_id"`
}

// HandleConnection runs the client's read loop on the calling goroutine and
// its write loop in the background. If eventID is non-empty the client joins
// that room immediately. Returns when the connection is gone; by then the
// client has been removed from every room.
func (h *Hub) HandleConnection(conn *websocket.Conn, eventID string) {
	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.logger.Debug("websocket connected", "client_id", client.id)
	go client.writePump()
	if eventID != "" {
		h.Join(client, eventID)
	}
	client.readPump()
	h.logger.Debug("websocket disconnected", "client_id", client.id)
}

// enqueue hands a pre-serialized message to the write loop without blocking.
// A client that cannot keep up loses messages rather than stalling publishers.
func (c *Client) enqueue(raw []byte) {
	if raw == nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeFromAllRooms(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg controlMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.EventID == "" {
			continue
		}
		switch msg.Action {
		case "join":
			c.hub.Join(c, msg.EventID)
		case "leave":
			c.hub.Leave(c, msg.EventID)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
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
