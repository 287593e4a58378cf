package stream

import (
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	sendChSize     = 1024
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
)

// client is one browser connection. A single write goroutine owns the socket
// for data frames; the read loop only consumes control frames.
type client struct {
	conn      *ws.Conn
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
}

// newClient buffers backlog frames on top of the regular send buffer.
func newClient(conn *ws.Conn, logger *slog.Logger, backlog int) *client {
	return &client{
		conn:   conn,
		sendCh: make(chan []byte, sendChSize+backlog),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// send queues data for the write loop. It reports false when the client is
// closed or too slow to keep up.
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		return false
	}
}

// writeLoop drains sendCh and keeps the connection alive with pings.
// It returns on write error or close.
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				c.close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.logger.Debug("WebSocket write error", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("WebSocket ping error", "error", err)
				c.close()
				return
			}
		}
	}
}

// readLoop blocks until the peer goes away. Browsers never send data frames,
// anything received is discarded.
func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				c.logger.Debug("WebSocket read error", "error", err)
			}
			c.close()
			return
		}
	}
}

// close sends a close frame and releases the socket. Safe to call repeatedly.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = c.conn.Close()
	})
}
