package runtime

import (
	"consensus-chat/contract"
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	ce "consensus-chat/errors"
	"consensus-chat/protocol"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Sink receives the events of one handle, in transport order,
// from a single goroutine at a time.
type Sink func(h *Handle, e event.Event)

// DropHook observes every inbound frame the decoder rejected.
type DropHook func(raw string, err error)

// Handle is one room connection owned by the ConnectionManager.
type Handle struct {
	room      domain.RoomID
	conn      contract.Conn
	state     domain.ConnectionState // guarded by ConnectionManager.mu
	requested atomic.Bool            // close requested by the owner
	closeOnce sync.Once
	done      chan struct{}
}

func (h *Handle) Room() domain.RoomID { return h.room }

// Stopped reports whether the owner asked for this handle to be closed.
// No event is delivered once it returns true.
func (h *Handle) Stopped() bool { return h.requested.Load() }

// Done is closed when the reader goroutine of the handle exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) closeConn(log *slog.Logger) {
	h.closeOnce.Do(func() {
		if h.conn == nil {
			return
		}
		if err := h.conn.Close(); err != nil {
			log.Debug("Error while closing room connection", "room_id", h.room, "error", err)
		}
	})
}

type ConnectionManager struct {
	mu      sync.Mutex
	log     *slog.Logger
	dialer  contract.Dialer
	decoder *protocol.Decoder
	origin  string
	onDrop  DropHook
	// live holds every handle dialing or open, Shutdown closes them all.
	live map[*Handle]struct{}
}

type ManagerOption func(*ConnectionManager)

func WithDropHook(hook DropHook) ManagerOption {
	return func(m *ConnectionManager) { m.onDrop = hook }
}

func WithDecoder(decoder *protocol.Decoder) ManagerOption {
	return func(m *ConnectionManager) { m.decoder = decoder }
}

// NewConnectionManager returns a manager dialing rooms relative to the
// REST origin (http→ws, https→wss).
func NewConnectionManager(log *slog.Logger, dialer contract.Dialer, origin string, opts ...ManagerOption) *ConnectionManager {
	m := &ConnectionManager{
		log:     log,
		dialer:  dialer,
		decoder: protocol.NewDecoder(),
		origin:  origin,
		live:    make(map[*Handle]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open connects to a room in place of prev. When prev is the same room and
// still connecting or open it is returned as is; otherwise prev is closed
// before dialing. Open only ever closes the handle it is given, so a stale
// call never tears down a newer connection. When the dial fails the sink
// receives Closed with an OpenFailed error, which is also returned.
func (m *ConnectionManager) Open(ctx context.Context, room domain.RoomID, credential string, prev *Handle, sink Sink) (*Handle, error) {
	url, err := protocol.RoomURL(m.origin, room, credential)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if prev != nil && prev.room == room && !prev.Stopped() && prev.state != domain.Closed {
		m.mu.Unlock()
		return prev, nil
	}
	h := &Handle{room: room, state: domain.Connecting, done: make(chan struct{})}
	m.live[h] = struct{}{}
	m.mu.Unlock()

	// Teardown strictly happens before the next dial.
	m.Close(prev)

	m.log.Debug("Dialing room", "room_id", room)
	conn, err := m.dialer.Dial(ctx, url)
	if err != nil {
		connErr := &ce.ConnectionError{Kind: ce.OpenFailed, Room: string(room), Err: err}
		m.mu.Lock()
		h.state = domain.Closed
		delete(m.live, h)
		m.mu.Unlock()
		close(h.done)
		m.log.Warn("Unable to open room connection", "room_id", room, "error", err)
		deliver(h, sink, event.Closed{Room: room, Err: connErr})
		return h, connErr
	}

	m.mu.Lock()
	h.conn = conn
	if h.Stopped() {
		// Closed while dialing.
		h.state = domain.Closed
		delete(m.live, h)
		m.mu.Unlock()
		h.closeConn(m.log)
		close(h.done)
		return h, nil
	}
	h.state = domain.Open
	m.mu.Unlock()

	m.log.Info("Room connection opened", "room_id", room)
	go m.read(h, sink)
	return h, nil
}

// Close requests the handle to stop. The socket is closed exactly once
// and nothing is delivered afterwards. Closing twice is a no-op.
func (m *ConnectionManager) Close(h *Handle) {
	if h == nil {
		return
	}
	h.requested.Store(true)
	m.mu.Lock()
	delete(m.live, h)
	h.state = domain.Closed
	hasConn := h.conn != nil
	m.mu.Unlock()
	if hasConn {
		h.closeConn(m.log)
		m.log.Info("Room connection closed", "room_id", h.room)
	}
}

// Shutdown closes every connection, dialing or open.
func (m *ConnectionManager) Shutdown() {
	m.mu.Lock()
	live := make([]*Handle, 0, len(m.live))
	for h := range m.live {
		live = append(live, h)
	}
	m.mu.Unlock()
	for _, h := range live {
		m.Close(h)
	}
}

// State reports the connection state of a handle.
func (m *ConnectionManager) State(h *Handle) domain.ConnectionState {
	if h == nil {
		return domain.Idle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return h.state
}

// TrySend writes one outbound frame. It returns false without any I/O
// unless the handle is open; callers keep the text when it was not sent.
func (m *ConnectionManager) TrySend(h *Handle, text string) bool {
	if h == nil || h.Stopped() {
		return false
	}
	m.mu.Lock()
	if h.state != domain.Open {
		m.mu.Unlock()
		return false
	}
	conn := h.conn
	m.mu.Unlock()

	frame, err := protocol.EncodeOutbound(text)
	if err != nil {
		m.log.Error("Unable to encode outbound frame", "room_id", h.room, "error", err)
		return false
	}
	if err := conn.Send(frame); err != nil {
		m.log.Warn("Unable to send frame", "room_id", h.room, "error", err)
		return false
	}
	return true
}

// read is the only goroutine delivering events of a handle, so the sink
// sees them in the order the transport produced them.
func (m *ConnectionManager) read(h *Handle, sink Sink) {
	defer close(h.done)
	deliver(h, sink, event.Opened{Room: h.room})

	for {
		raw, err := h.conn.Receive()
		if err != nil {
			if h.Stopped() {
				m.log.Debug("Reader stopped", "room_id", h.room)
				return
			}
			m.mu.Lock()
			h.state = domain.Closed
			delete(m.live, h)
			m.mu.Unlock()
			h.closeConn(m.log)

			if errors.Is(err, io.EOF) {
				m.log.Warn("Room connection closed by peer", "room_id", h.room)
				deliver(h, sink, event.Closed{Room: h.room, Err: &ce.ConnectionError{Kind: ce.ClosedByPeer, Room: string(h.room), Err: err}})
				return
			}
			m.log.Warn("Room connection failed", "room_id", h.room, "error", err)
			deliver(h, sink, event.Errored{Room: h.room, Err: &ce.ConnectionError{Kind: ce.TransportError, Room: string(h.room), Err: err}})
			return
		}

		evt, err := m.decoder.Decode(raw)
		if err != nil {
			m.log.Debug("Frame dropped", "room_id", h.room, "error", err)
			if m.onDrop != nil {
				m.onDrop(raw, err)
			}
			continue
		}
		deliver(h, sink, evt)
	}
}

func deliver(h *Handle, sink Sink, e event.Event) {
	if sink == nil || h.Stopped() {
		return
	}
	sink(h, e)
}
