// Package event defines the closed set of events a session folds.
// Frame events come from the protocol decoder, connection events from
// the connection manager.
package event

import (
	"consensus-chat/domain"
	"time"
)

// Event is sealed: only types of this package implement it.
type Event interface {
	Name() string
	isEvent()
}

// MessageReceived carries one history entry decoded from a frame.
type MessageReceived struct {
	Message domain.Message
}

type RosterKind string

const (
	Joined RosterKind = "joined"
	Left   RosterKind = "left"
)

// RosterChanged is ephemeral: it replaces the online users of the session
// with the snapshot it carries.
type RosterChanged struct {
	Kind        RosterKind
	UserID      domain.UserID
	OnlineUsers domain.Roster
	At          time.Time
}

// AgentTyping signals that at least one agent is working on a reply.
type AgentTyping struct{}

// Connecting is applied by the facade once a room was selected,
// before its connection is dialed.
type Connecting struct {
	Room domain.RoomID
}

// Opened is emitted once the room connection is ready to send.
type Opened struct {
	Room domain.RoomID
}

// Closed is emitted when the connection ended, for whatever reason.
type Closed struct {
	Room domain.RoomID
	Err  error
}

// Errored is emitted when the transport failed.
type Errored struct {
	Room domain.RoomID
	Err  error
}

func (MessageReceived) Name() string { return "message_received" }
func (RosterChanged) Name() string   { return "roster_changed" }
func (AgentTyping) Name() string     { return "agent_typing" }
func (Connecting) Name() string      { return "connecting" }
func (Opened) Name() string          { return "opened" }
func (Closed) Name() string          { return "closed" }
func (Errored) Name() string         { return "errored" }

func (MessageReceived) isEvent() {}
func (RosterChanged) isEvent()   {}
func (AgentTyping) isEvent()     {}
func (Connecting) isEvent()      {}
func (Opened) isEvent()          {}
func (Closed) isEvent()          {}
func (Errored) isEvent()         {}
