package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	live "go-movement/internal/pkg/live/application/domain"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 64
)

var errConnClosed = errors.New("realtime: connection closed")

// Connection wraps one client websocket. Outbound traffic goes through a
// buffered channel drained by a single write loop, so any number of
// broadcasters may Send concurrently. The identity resolved at the handshake
// is bound for the life of the connection and never re-resolved.
type Connection struct {
	ID       string
	Identity live.Identity

	ws       *websocket.Conn
	outbound chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewConnection constructs a Connection bound to the given identity, which
// may be the anonymous marker. The write loop starts immediately.
func NewConnection(identity live.Identity, ws *websocket.Conn) *Connection {
	c := &Connection{
		ID:       uuid.NewString(),
		Identity: identity,
		ws:       ws,
		outbound: make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// Send enqueues payload for delivery. A slow client whose buffer fills up is
// disconnected rather than allowed to stall publishers.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	case c.outbound <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errConnClosed
	}
}

// Close terminates the connection and stops the write loop. Safe to call
// multiple times.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.SetWriteDeadline(deadline)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

// Done is closed once the connection has been terminated.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.outbound:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
