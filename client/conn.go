// Package client wraps the websocket connection to the companion
// server: dialing, the ordered handshake, and typed frame I/O. The
// send and receive directions are each used by exactly one session
// task, so reads and writes never race on the connection itself.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/room4-2/OpenCompanion/frames"
)

const (
	maxMessageSize = 512 * 1024 // 512KB max inbound message
	writeTimeout   = 10 * time.Second
)

// Conn is a client connection to the companion server.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	closed  bool
}

// URL builds the companion endpoint for a client id.
func URL(host string, port int, clientID string) string {
	return fmt.Sprintf("ws://%s:%d/ws/%s", host, port, clientID)
}

// Dial connects to the companion server.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	ws.SetReadLimit(maxMessageSize)
	return &Conn{ws: ws}, nil
}

// ReadGreeting receives the server's greeting, the first message of
// the handshake.
func (c *Conn) ReadGreeting() (string, error) {
	messageType, data, err := c.ws.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("read greeting: %w", err)
	}
	if messageType != websocket.TextMessage {
		return "", frames.ErrProtocol
	}
	return string(data), nil
}

// ReadFrame receives and classifies the next inbound frame. Transport
// errors and unexpected closures propagate to the caller as
// connection-fatal.
func (c *Conn) ReadFrame() (frames.Frame, error) {
	messageType, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return frames.Classify(messageType, data)
}

// SendText sends one text frame.
func (c *Conn) SendText(content string) error {
	return c.write(websocket.TextMessage, []byte(content))
}

// SendAudio sends one raw capture payload as a binary frame.
func (c *Conn) SendAudio(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *Conn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Close tears the connection down. Safe to call more than once, and
// from a goroutine other than the readers/writers (it unblocks them).
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()

	return c.ws.Close()
}
