package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const ( // ping/pong heartbeat to keep the connection alive
	WriteWait      = 10 * time.Second    // max time to write a message to the peer
	PongWait       = 60 * time.Second    // max time to wait for pong from peer
	PingPeriod     = (PongWait * 9) / 10 // send pings before the pong deadline expires
	MaxMessageSize = 512                 // maximum inbound message size allowed from peer

	sendBufferSize = 256
)

// ErrSendBufferFull is returned when a client cannot keep up with pushes.
// The fanout treats it like any other write failure and drops the handle.
var ErrSendBufferFull = errors.New("client send buffer full")

// ErrClientClosed is returned for writes after the connection is torn down
var ErrClientClosed = errors.New("client connection closed")

// Client is one websocket connection. It implements Handle: all writes go
// through the buffered send channel so a slow peer never blocks the fanout.
type Client struct {
	conn     *websocket.Conn
	registry *Registry
	logger   *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, registry *Registry, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		registry: registry,
		logger:   logger,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Send queues data for the write pump. Never blocks: a full buffer or a
// closed connection reports an error instead.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down exactly once. The registry entry is
// removed synchronously, before the transport closes, so a late fanout
// write never targets a handle that is mid-close.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.registry.Unregister(c)
		close(c.done)
		c.conn.Close()
	})
}

// ReadPump consumes inbound frames. The only client-to-gateway message is
// identify; anything else is ignored. Exits (and closes the client) on any
// read error, which covers normal disconnects.
func (c *Client) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		env, err := EnvelopeFromJSON(data)
		if err != nil {
			c.logger.Warn("Ignoring malformed client frame", "error", err)
			continue
		}

		switch env.Type {
		case TypeIdentify:
			c.handleIdentify(env)
		default:
			c.logger.Debug("Ignoring unexpected client message", "type", env.Type)
		}
	}
}

// handleIdentify registers this connection for the claimed user.
// Re-identifying is idempotent; the last value wins for this handle.
func (c *Client) handleIdentify(env *Envelope) {
	var payload IdentifyPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.UserID == "" {
		c.logger.Warn("Ignoring identify without user id")
		return
	}

	c.registry.Register(payload.UserID, c)
	c.logger.Info("Connection identified", "user_id", payload.UserID, "connections", c.registry.Count())
}

// WritePump owns all writes on the connection: queued pushes and heartbeat
// pings. Exits (and closes the client) when the peer is gone.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
