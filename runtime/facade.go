package runtime

import (
	"consensus-chat/auth"
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	ce "consensus-chat/errors"
	"consensus-chat/projection"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Subscriber receives a full session snapshot after every change.
type Subscriber func(domain.Session)

type subscription struct {
	id int
	fn Subscriber
}

// Facade owns the session of the active room. The connection manager only
// reaches the session through dispatch, which applies the reducer under mu.
// Subscribers are called without any lock held, in application order, so a
// callback may call back into the facade.
type Facade struct {
	mu      sync.Mutex
	log     *slog.Logger
	manager *ConnectionManager
	now     func() time.Time
	state   domain.Session
	handle  *Handle
	gen     uint64
	closed  bool

	qmu      sync.Mutex
	queue    []domain.Session
	draining bool
	subs     []subscription
	nextID   int
}

type FacadeOption func(*Facade)

// WithClock replaces the clock used to check credential expiry.
func WithClock(now func() time.Time) FacadeOption {
	return func(f *Facade) { f.now = now }
}

func NewFacade(log *slog.Logger, manager *ConnectionManager, opts ...FacadeOption) *Facade {
	f := &Facade{
		log:     log,
		manager: manager,
		now:     time.Now,
		state:   domain.NewSession(""),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SelectRoom makes room the active one. The previous connection is closed
// and the session reset before the new connection can deliver anything.
// Selecting the room that is already connecting or open is a no-op.
// A missing or expired credential leaves the current session untouched.
func (f *Facade) SelectRoom(ctx context.Context, room domain.RoomID, credential string) error {
	if strings.TrimSpace(string(room)) == "" {
		return ce.ErrMissingRoom
	}
	if err := auth.InspectCredential(credential, f.now()); err != nil {
		return err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ce.ErrSessionClosed
	}
	if f.state.RoomID == room && (f.state.Connection == domain.Connecting || f.state.Connection == domain.Open) {
		f.mu.Unlock()
		return nil
	}
	f.manager.Close(f.handle)
	f.handle = nil
	f.gen++
	gen := f.gen
	// A new room starts from an empty session, the reducer then marks it connecting.
	f.setLocked(projection.Apply(domain.NewSession(room), event.Connecting{Room: room}))
	f.mu.Unlock()
	f.drain()

	// A subscriber of the drain above may already have selected another room.
	f.mu.Lock()
	superseded := gen != f.gen
	f.mu.Unlock()
	if superseded {
		return nil
	}

	f.log.Info("Room selected", "room_id", room)
	// The previous handle is already closed, Open replaces nothing.
	h, err := f.manager.Open(ctx, room, credential, nil, func(h *Handle, e event.Event) {
		f.dispatch(gen, h, e)
	})

	f.mu.Lock()
	switch {
	case gen != f.gen:
		// Another selection or Close won the race.
		f.manager.Close(h)
	case h != nil:
		f.handle = h
	case err != nil:
		// Nothing was dialed, the room address itself is unusable.
		f.setLocked(projection.Apply(f.state, event.Closed{Room: room, Err: err}))
	}
	f.mu.Unlock()
	f.drain()
	return err
}

// Send trims the text and sends it when the room is open. It returns
// false with ErrEmptyMessage for blank text and ErrSendRejected when the
// connection is not open; in both cases nothing is written.
func (f *Facade) Send(text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, ce.ErrEmptyMessage
	}
	f.mu.Lock()
	h, open := f.handle, f.state.CanSend()
	f.mu.Unlock()
	if !open || !f.manager.TrySend(h, text) {
		return false, ce.ErrSendRejected
	}
	return true, nil
}

// Subscribe registers fn and returns a function removing it.
func (f *Facade) Subscribe(fn Subscriber) func() {
	f.qmu.Lock()
	defer f.qmu.Unlock()
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscription{id: id, fn: fn})
	return func() {
		f.qmu.Lock()
		defer f.qmu.Unlock()
		f.subs = slices.DeleteFunc(f.subs, func(s subscription) bool { return s.id == id })
	}
}

func (f *Facade) CurrentState() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Close tears the facade down. The connection is closed exactly once and
// no further event reaches the session. Calling Close again is a no-op.
func (f *Facade) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.gen++
	f.manager.Close(f.handle)
	f.manager.Shutdown()
	f.handle = nil
	room := f.state.RoomID
	f.mu.Unlock()
	f.log.Debug("Session closed", "room_id", room)
}

func (f *Facade) dispatch(gen uint64, h *Handle, e event.Event) {
	f.mu.Lock()
	if gen != f.gen || h.Stopped() {
		f.mu.Unlock()
		return
	}
	if f.handle == nil {
		f.handle = h
	}
	f.setLocked(projection.Apply(f.state, e))
	f.mu.Unlock()
	f.drain()
}

// setLocked stores the next state and queues it for subscribers.
// mu must be held, so queue order is application order.
func (f *Facade) setLocked(next domain.Session) {
	f.state = next
	f.qmu.Lock()
	f.queue = append(f.queue, next)
	f.qmu.Unlock()
}

// drain delivers queued snapshots. Only one goroutine drains at a time;
// a nested call, from a subscriber or another goroutine, leaves its
// snapshots to the active drainer.
func (f *Facade) drain() {
	f.qmu.Lock()
	if f.draining {
		f.qmu.Unlock()
		return
	}
	f.draining = true
	for len(f.queue) > 0 {
		snapshot := f.queue[0]
		f.queue = f.queue[1:]
		subs := slices.Clone(f.subs)
		f.qmu.Unlock()
		for _, s := range subs {
			s.fn(snapshot)
		}
		f.qmu.Lock()
	}
	f.draining = false
	f.qmu.Unlock()
}
