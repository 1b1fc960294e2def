//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"consensus-chat/domain"
	"context"
	"reflect"
)

// Conn is one live room connection carrying text frames.
// Receive blocks until a frame arrives or the connection ends.
type Conn interface {
	Receive() (string, error)
	Send(text string) error
	Close() error
}

// Dialer opens a room connection for a fully built websocket URL.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used in supervision logs, avoiding a Name method on every worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Peer is the outbound side of one participant connected to the
// development room server.
type Peer interface {
	Send(frame string) error
}

// IRegistry tracks who is connected to which room.
// Join and Leave return the online users after the change.
type IRegistry interface {
	Join(roomID domain.RoomID, peerID string, userName string, peer Peer) []string
	Leave(roomID domain.RoomID, peerID string) []string
	Peers(roomID domain.RoomID) []Peer
	Online(roomID domain.RoomID) []string
}

// Broadcaster writes one encoded frame to every peer of a room.
type Broadcaster interface {
	Broadcast(ctx context.Context, roomID domain.RoomID, frame any) error
}
