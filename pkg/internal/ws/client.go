package ws

import (
	"encoding/json"
	"time"

	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

// Client bridges one websocket session and the hub. The account is the
// identity verified at upgrade time and may be nil for anonymous
// read-only sessions; the routing role the client declares later never
// substitutes for it.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	account *models.Account
	send    chan Message
}

func NewClient(hub *Hub, conn *websocket.Conn, account *models.Account) *Client {
	return &Client{
		id:      uuid.NewString(),
		hub:     hub,
		conn:    conn,
		account: account,
		send:    make(chan Message, 64),
	}
}

// Serve registers the client and pumps frames until the transport dies.
// It blocks for the lifetime of the connection.
func (c *Client) Serve() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

// push hands one frame to the write pump without ever blocking the hub
// loop; a client too slow to drain its buffer loses the frame and catches
// up from a snapshot later.
func (c *Client) push(msg Message) {
	select {
	case c.send <- msg:
	default:
		log.Debug().Str("connection", c.id).Str("event", msg.Event).
			Msg("Websocket send buffer full, frame dropped.")
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("connection", c.id).Msg("Websocket closed unexpectedly.")
			}
			return
		}

		var frame struct {
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := jsoniter.Unmarshal(raw, &frame); err != nil || len(frame.Event) == 0 {
			continue
		}

		c.handleEvent(frame.Event, frame.Payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
