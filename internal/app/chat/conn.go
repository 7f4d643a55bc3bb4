/*
Package chat contains the client side of the chat protocol.

This file defines Conn, the single WebSocket connection a Session owns. It manages the
connection lifecycle and the two pumps: ReadPump hands every text frame to a callback,
WritePump drains the send queue and keeps the connection alive with pings.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wschat/internal/pkg/errs"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong from the server.
	pongWait = 60 * time.Second

	// frequency at which the client sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum time allowed for the opening handshake.
	handshakeTimeout = 15 * time.Second

	// maximum allowed size (in bytes) of a frame sent by the server. History frames
	// carry many messages, so this is larger than a single chat message.
	maxFrameSize = 1 << 20

	// capacity of the outbound queue.
	sendQueueSize = 64
)

// Conn wraps an open WebSocket connection to the chat server.
type Conn struct {
	// underlying WebSocket connection object.
	ws *websocket.Conn

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// mu guards closed, pumping and the send channel close.
	mu      sync.Mutex
	closed  bool
	pumping bool

	// done is closed once WritePump has returned.
	done chan struct{}

	// structured logger with session and endpoint context.
	logger zerolog.Logger
}

// Dial opens a WebSocket connection to endpoint.
func Dial(ctx context.Context, endpoint string, logger zerolog.Logger) (*Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}

	logger.Debug().Msg("Dialing chat server.")

	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Error().Err(err).Int("http_status", status).Msg("WebSocket handshake failed")
		return nil, errors.Join(errs.NewError(errs.ErrDialFailed, endpoint), err)
	}

	logger.Info().Msg("Connected to the WebSocket server.")

	return &Conn{
		ws:     ws,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}, nil
}

// ReadPump reads frames until the connection fails or is closed and returns the error
// that ended it. Every text frame is passed to onFrame.
func (c *Conn) ReadPump(onFrame func([]byte)) error {
	c.ws.SetReadLimit(maxFrameSize)

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return err
	}

	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if IsAbnormalClose(err) {
				c.logger.Warn().Err(err).Msg("Connection lost")
			} else {
				c.logger.Info().Err(err).Msg("Connection closed")
			}
			return err
		}

		// Any traffic proves the server is alive.
		if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return err
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug().Int("message_type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		onFrame(data)
	}
}

// WritePump writes queued frames to the connection and pings the server periodically.
// It returns when the queue is closed or a write fails, closing the connection.
func (c *Conn) WritePump() {
	c.mu.Lock()
	if c.closed {
		// Close already tore the connection down.
		c.mu.Unlock()
		return
	}
	c.pumping = true
	c.mu.Unlock()

	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame pulled from the send channel.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Conn) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.ws.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a Ping to keep the connection alive.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Conn) writePingMessage() bool {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// Send marshals data and queues it for WritePump without blocking.
func (c *Conn) Send(data any) error {
	messageBytes, err := json.Marshal(data)
	if err != nil {
		c.logger.Error().Err(err).Msg("Error marshaling outbound envelope")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errs.NewError(errs.ErrNotConnected)
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping message")
		return errs.NewError(errs.ErrSendQueueFull)
	}
}

// Close asks WritePump to send a close frame and shut the connection down. Without a
// running WritePump the connection is closed directly. It is safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)

	if !c.pumping {
		if err := c.ws.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error")
		}
		close(c.done)
	}
}

// Done is closed once the connection has been torn down by WritePump.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// IsAbnormalClose reports whether err ended the connection without a close handshake,
// which a browser reports as an error before the close.
func IsAbnormalClose(err error) bool {
	if err == nil {
		return false
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code == websocket.CloseAbnormalClosure
	}
	return true
}
