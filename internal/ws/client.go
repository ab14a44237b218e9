package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// socket is the part of *websocket.Conn the hub writes to.
type socket interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one registered websocket. Writes are serialized because
// gorilla connections allow only one concurrent writer.
type Client struct {
	conn socket
	info ConnInfo
	mu   sync.Mutex
}

func NewClient(conn socket, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// close waits for an in-flight write before closing the connection.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Close()
}
