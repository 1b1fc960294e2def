package domain

import (
	"time"
)

// Command is an input accepted by the development room server.
type Command interface {
	RoomID() RoomID
}

// PostMessageCommand is one user text read from a room connection.
// CensoredWords and Lang are filled by moderation.
type PostMessageCommand struct {
	Room          RoomID
	SenderID      string
	SenderName    string
	Content       string
	CreatedAt     time.Time
	CensoredWords []string
	Lang          string
}

func (p PostMessageCommand) RoomID() RoomID {
	return p.Room
}
