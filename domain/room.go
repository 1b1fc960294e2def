package domain

import (
	"slices"
	"strings"
)

type RoomID string

type UserID string

type ConnectionState int

const (
	Idle ConnectionState = iota
	Connecting
	Open
	Closed
)

func (s ConnectionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Roster is the set of online users, kept sorted and free of duplicates
// so two snapshots of the same room compare equal.
type Roster []UserID

func NewRoster(ids []string) Roster {
	roster := make(Roster, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		roster = append(roster, UserID(id))
	}
	slices.Sort(roster)
	return slices.Compact(roster)
}

func (r Roster) Contains(id UserID) bool {
	_, found := slices.BinarySearch(r, id)
	return found
}

// Session is the client view of one active room.
// It is a value: every change produces a new Session and earlier
// snapshots handed to subscribers are never modified.
type Session struct {
	RoomID            RoomID
	Connection        ConnectionState
	Messages          []Message
	TypingAgentActive bool
	OnlineUsers       Roster
	// LastError is the reason of the last Closed transition, if any.
	LastError error
}

func NewSession(roomID RoomID) Session {
	return Session{
		RoomID:      roomID,
		Connection:  Idle,
		Messages:    nil,
		OnlineUsers: Roster{},
	}
}

func (s Session) CanSend() bool {
	return s.Connection == Open
}
