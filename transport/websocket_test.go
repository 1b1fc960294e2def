package transport

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWebSocketDialer_Exchange(t *testing.T) {
	req := require.New(t)

	// Given a server echoing every frame back uppercased, then closing
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		var frame string
		if err := websocket.Message.Receive(ws, &frame); err != nil {
			return
		}
		_ = websocket.Message.Send(ws, strings.ToUpper(frame))
		_ = ws.Close()
	}))
	t.Cleanup(srv.Close)

	dialer := NewWebSocketDialer(srv.URL, time.Second)
	conn, err := dialer.Dial(context.Background(), wsURL(srv.URL)+"/api/ws/R1?token=T1")
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })

	// When a frame is sent
	req.NoError(conn.Send(`{"message":"hi"}`))

	// Then the reply is received whole, followed by end of stream
	frame, err := conn.Receive()
	req.NoError(err)
	req.Equal(`{"MESSAGE":"HI"}`, frame)

	_, err = conn.Receive()
	req.ErrorIs(err, io.EOF)
}

func TestWebSocketDialer_Refused(t *testing.T) {
	req := require.New(t)

	// Given a server that is already gone
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {}))
	url := wsURL(srv.URL)
	srv.Close()

	// When dialing it
	_, err := NewWebSocketDialer("http://localhost", time.Second).Dial(context.Background(), url)

	// Then the dial fails
	req.Error(err)
}

func TestWebSocketDialer_InvalidURL(t *testing.T) {
	req := require.New(t)
	_, err := NewWebSocketDialer("http://localhost", 0).Dial(context.Background(), "::not a url")
	req.Error(err)
}
