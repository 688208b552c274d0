package ws

import (
	"errors"
	"sync"
	"time"

	"librarymgmt/service/notify"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

var errObserverGone = errors.New("observer closed or too slow")

// client adapts one websocket connection to notify.Subscriber. Writes go
// through the send channel so the hub never blocks on network I/O and the
// connection has a single writer goroutine.
type client struct {
	hub  *notify.Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

var _ notify.Subscriber = (*client)(nil)

func newClient(hub *notify.Hub, conn *websocket.Conn) *client {
	return &client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send queues a message without blocking. A full buffer counts as a failed
// delivery, the hub will drop the observer.
func (c *client) Send(msg []byte) error {
	select {
	case <-c.done:
		return errObserverGone
	case c.send <- msg:
		return nil
	default:
		return errObserverGone
	}
}

func (c *client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// run blocks until the connection dies, like the read loop the admin
// dashboard protocol expects: inbound messages are read and discarded.
func (c *client) run() {
	go c.writePump()
	defer func() {
		c.hub.Disconnect(c)
		c.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.Disconnect(c)
				c.Close()
				return
			}
		}
	}
}
