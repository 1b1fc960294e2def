// Package projection folds events into the session view of a room.
// Apply is pure: it never blocks, never fails and never modifies the
// session it receives, so earlier snapshots stay valid.
// Does not emit events or talk to the transport.
package projection

import (
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	"slices"
)

// Apply returns the session that results from one event.
func Apply(state domain.Session, e event.Event) domain.Session {
	switch evt := e.(type) {
	case event.MessageReceived:
		if evt.Message == nil {
			return state
		}
		// Clip forces a copy on append so a previous snapshot sharing
		// the backing array is never written through.
		state.Messages = append(slices.Clip(state.Messages), evt.Message)
		if evt.Message.Kind() == domain.KindConsensus {
			state.TypingAgentActive = false
		}
	case event.AgentTyping:
		state.TypingAgentActive = true
	case event.RosterChanged:
		state.OnlineUsers = slices.Clone(evt.OnlineUsers)
		if state.OnlineUsers == nil {
			state.OnlineUsers = domain.Roster{}
		}
	case event.Connecting:
		if !sameRoom(state, evt.Room) {
			return state
		}
		state.Connection = domain.Connecting
		state.LastError = nil
	case event.Opened:
		if !sameRoom(state, evt.Room) {
			return state
		}
		state.Connection = domain.Open
		state.LastError = nil
	case event.Closed:
		if !sameRoom(state, evt.Room) {
			return state
		}
		state = disconnect(state, evt.Err)
	case event.Errored:
		if !sameRoom(state, evt.Room) {
			return state
		}
		state = disconnect(state, evt.Err)
	}
	return state
}

// Fold applies events in order.
func Fold(state domain.Session, events ...event.Event) domain.Session {
	for _, e := range events {
		state = Apply(state, e)
	}
	return state
}

// An agent cannot be thinking on a dead connection.
func disconnect(state domain.Session, err error) domain.Session {
	state.Connection = domain.Closed
	state.TypingAgentActive = false
	if err != nil {
		state.LastError = err
	}
	return state
}

// Connection events without a room apply to whatever room is current.
func sameRoom(state domain.Session, room domain.RoomID) bool {
	return room == "" || room == state.RoomID
}
