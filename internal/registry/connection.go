package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akiroussama/codeClashServer/internal/metrics"
)

// Connection is one live observer. Outbound payloads go through a buffered
// channel drained by a single writer goroutine, so a slow observer never
// blocks the broadcaster.
type Connection struct {
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	writeTimeout time.Duration

	closed    atomic.Bool
	closeOnce sync.Once
}

func newConnection(ws *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Connection{
		ws:           ws,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// open reports whether the transport is still usable for delivery.
func (c *Connection) open() bool {
	return !c.closed.Load()
}

// enqueue hands a payload to the writer goroutine. A full buffer counts as
// an isolated delivery failure for this connection only.
func (c *Connection) enqueue(payload []byte) bool {
	if !c.open() {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// writePump drains the send channel onto the socket. The first write error
// marks the connection non-open; removal from the registry happens only on
// the explicit disconnect signal.
func (c *Connection) writePump() {
	for {
		select {
		case payload := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				metrics.BroadcastDrops.Inc()
				c.closed.Store(true)
				return
			}
		case <-c.done:
			return
		}
	}
}

// close tears the connection down exactly once, no matter how many
// disconnect signals arrive.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.ws.Close()
	})
}
