package realtime

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait = 10 * time.Second
)

// Conn is the part of a websocket connection the hub writes to
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type wsConn interface {
	Conn
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
}

// SyncConn serializes writes to one websocket connection. Reads stay with
// the connection's own handler goroutine.
type SyncConn struct {
	mu   sync.Mutex
	conn wsConn
}

// NewSyncConn wraps a websocket connection
func NewSyncConn(conn wsConn) *SyncConn {
	return &SyncConn{conn: conn}
}

// WriteJSON sends v as a text frame within the write deadline
func (c *SyncConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Ping sends a ping control frame
func (c *SyncConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close closes the underlying connection
func (c *SyncConn) Close() error {
	return c.conn.Close()
}
