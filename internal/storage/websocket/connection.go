package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/OCAP2/artillery/pkg/streaming"
	ws "github.com/gorilla/websocket"
)

const (
	sendChSize   = 10_000
	ackChSize    = 16
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
	writeWait    = 10 * time.Second
)

// ackTimeout bounds StartMatch and EndMatch. Tests shorten it.
var ackTimeout = 10 * time.Second

// connection owns one socket with a single writer goroutine and a single reader goroutine.
// After a drop it redials with backoff and replays the start_match frame.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	closed bool
	replay []byte // start_match frame of the running match

	sendCh chan []byte
	ackCh  chan streaming.AckMessage
	done   chan struct{}

	target *url.URL
	log    *slog.Logger
}

func newConnection(log *slog.Logger) *connection {
	return &connection{
		sendCh: make(chan []byte, sendChSize),
		ackCh:  make(chan streaming.AckMessage, ackChSize),
		done:   make(chan struct{}),
		log:    log,
	}
}

// open parses the endpoint, attaches the secret and starts the loops.
func (c *connection) open(rawURL, secret string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	c.target = u

	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.attach(conn)
	return nil
}

func (c *connection) dial() (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.Dial(c.target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// attach installs conn and starts a fresh pair of loops bound to it.
func (c *connection) attach(conn *ws.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	gone := make(chan struct{})
	go c.writeLoop(conn, gone)
	go c.readLoop(conn, gone)
}

func (c *connection) setReplay(frame []byte) {
	c.mu.Lock()
	c.replay = frame
	c.mu.Unlock()
}

// writeLoop stops when the reader for the same socket exits, so a stale writer never eats frames.
func (c *connection) writeLoop(conn *ws.Conn, gone <-chan struct{}) {
	for {
		select {
		case <-c.done:
			return
		case <-gone:
			return
		case frame := <-c.sendCh:
			if err := writeFrame(conn, frame); err != nil {
				c.log.Warn("WebSocket write error", "error", err)
				go c.reconnect(conn)
				return
			}
		}
	}
}

func (c *connection) readLoop(conn *ws.Conn, gone chan<- struct{}) {
	defer close(gone)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("WebSocket read error", "error", err)
				go c.reconnect(conn)
			}
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(msg, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.log.Debug("Non-ack message received", "raw", string(msg))
			continue
		}
		select {
		case c.ackCh <- ack:
		default:
			c.log.Debug("Ack channel full, dropping", "for", ack.For)
		}
	}
}

func writeFrame(conn *ws.Conn, frame []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, frame)
}

// reconnect replaces broken. Both loops may report the same failure; only the first one acts.
func (c *connection) reconnect(broken *ws.Conn) {
	c.mu.Lock()
	if c.closed || c.conn != broken {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.mu.Unlock()
	_ = broken.Close()

	backoff := time.Second
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.log.Info("Reconnecting to WebSocket", "attempt", attempt)
		conn, err := c.dial()
		if err != nil {
			c.log.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			if err := writeFrame(conn, replay); err != nil {
				c.log.Warn("Failed to replay start_match after reconnect", "error", err)
				_ = conn.Close()
				continue
			}
		}

		c.log.Info("WebSocket reconnected", "attempt", attempt)
		c.attach(conn)
		return
	}

	c.log.Error("WebSocket reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// send queues a frame without blocking. A full queue drops the frame.
func (c *connection) send(frame []byte) {
	select {
	case c.sendCh <- frame:
	default:
		c.log.Warn("WebSocket send channel full, dropping message")
	}
}

// sendAndWait queues a frame and blocks until the matching ack, the timeout or shutdown.
func (c *connection) sendAndWait(frame []byte, ackFor string, timeout time.Duration) error {
	c.send(frame)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ack := <-c.ackCh:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// close sends a close frame and stops both loops. Safe to call twice.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return conn.Close()
}
