package server

import (
	"consensus-chat/contract"
	"consensus-chat/errors"
	"log/slog"
	"sync"

	"golang.org/x/net/websocket"
)

var _ contract.Peer = (*wsPeer)(nil)

// wsPeer queues outbound frames of one connection. pump is the only
// writer of the socket once the participant joined.
type wsPeer struct {
	outbound chan string
	done     chan struct{}
	once     sync.Once
}

func newPeer(bufferSize int) *wsPeer {
	return &wsPeer{outbound: make(chan string, bufferSize), done: make(chan struct{})}
}

// Send never blocks: a full queue drops the frame for this peer only.
func (p *wsPeer) Send(frame string) error {
	select {
	case <-p.done:
		return errors.ErrPeerGone
	default:
	}
	select {
	case p.outbound <- frame:
		return nil
	default:
		return errors.ErrPeerBackpressure
	}
}

func (p *wsPeer) pump(ws *websocket.Conn, log *slog.Logger) {
	for {
		select {
		case <-p.done:
			return
		case frame := <-p.outbound:
			if err := websocket.Message.Send(ws, frame); err != nil {
				log.Debug("Unable to write frame", "error", err)
				p.stop()
				return
			}
		}
	}
}

func (p *wsPeer) stop() {
	p.once.Do(func() { close(p.done) })
}
