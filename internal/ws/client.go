package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Conn is the slice of *websocket.Conn the gateway uses. Tests substitute
// in-memory fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Message is the envelope for both directions on the wire.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one authenticated websocket connection. A user may hold several
// clients at once (multiple tabs or devices).
type Client struct {
	ID     string
	UserID uint

	conn    Conn
	writeMu sync.Mutex
}

func NewClient(conn Conn, userID uint) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
	}
}

// send serializes writes: broadcasts and the ping ticker share the
// connection, and gorilla allows only one concurrent writer.
func (c *Client) send(event string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteJSON(outbound{Event: event, Data: data})
}

func (c *Client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.PingMessage, nil)
}
