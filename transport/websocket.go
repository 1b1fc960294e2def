package transport

import (
	"consensus-chat/contract"
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/websocket"
)

// WebSocketDialer opens room connections over RFC 6455 websockets.
type WebSocketDialer struct {
	origin  string
	timeout time.Duration
}

// NewWebSocketDialer returns a dialer sending origin in the handshake.
// A zero timeout leaves the dial bounded by the context only.
func NewWebSocketDialer(origin string, timeout time.Duration) *WebSocketDialer {
	return &WebSocketDialer{origin: origin, timeout: timeout}
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string) (contract.Conn, error) {
	cfg, err := websocket.NewConfig(url, d.origin)
	if err != nil {
		return nil, fmt.Errorf("unable to configure websocket for %s: %w", url, err)
	}
	if d.timeout > 0 {
		cfg.Dialer = &net.Dialer{Timeout: d.timeout}
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// Conn exchanges whole text frames.
type Conn struct {
	ws *websocket.Conn
}

// Receive blocks until a complete text frame arrives. It returns io.EOF
// once the peer closed the connection.
func (c *Conn) Receive() (string, error) {
	var frame string
	if err := websocket.Message.Receive(c.ws, &frame); err != nil {
		return "", err
	}
	return frame, nil
}

func (c *Conn) Send(text string) error {
	return websocket.Message.Send(c.ws, text)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

var _ contract.Dialer = (*WebSocketDialer)(nil)
var _ contract.Conn = (*Conn)(nil)
