package errors

import (
	"fmt"
)

var (
	ErrMalformedFrame  = fmt.Errorf("malformed frame")
	ErrUnknownType     = fmt.Errorf("unknown frame type")
	ErrInvalidPayload  = fmt.Errorf("invalid frame payload")
	ErrOpenFailed      = fmt.Errorf("connection open failed")
	ErrClosedByPeer    = fmt.Errorf("connection closed by peer")
	ErrTransport       = fmt.Errorf("transport error")
	ErrSendRejected    = fmt.Errorf("send rejected: connection is not open")
	ErrEmptyMessage    = fmt.Errorf("message is empty")
	ErrSessionClosed   = fmt.Errorf("session has been closed")
	ErrMissingRoom     = fmt.Errorf("room id is required")
	ErrUnsupportedURL  = fmt.Errorf("unsupported api origin scheme")
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrInvalidToken    = fmt.Errorf("invalid token")
	ErrMissingUserID   = fmt.Errorf("token has no user id")
	ErrEmptyDictionary = fmt.Errorf("no censored words have been found")

	// Room server peers
	ErrPeerGone         = fmt.Errorf("peer has left the room")
	ErrPeerBackpressure = fmt.Errorf("peer outbound queue is full")

	// ErrMissingCredential and ErrCredentialExpired both mean the caller
	// has to re-authenticate before selecting a room.
	ErrMissingCredential = fmt.Errorf("credential is required")
	ErrCredentialExpired = fmt.Errorf("credential has expired")
)

// DecodeKind classifies why an inbound frame was dropped.
type DecodeKind string

const (
	Malformed      DecodeKind = "malformed"
	UnknownType    DecodeKind = "unknown_type"
	InvalidPayload DecodeKind = "invalid_payload"
)

// DecodeError is returned by the protocol decoder. It is never fatal:
// the frame it describes is dropped before reaching the session.
type DecodeError struct {
	Kind  DecodeKind
	Type  string // frame discriminator, when one could be read
	Field string // JSON name of the missing field for InvalidPayload
	Err   error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case UnknownType:
		return fmt.Sprintf("%s %q", ErrUnknownType, e.Type)
	case InvalidPayload:
		return fmt.Sprintf("%s: %q frame is missing %s", ErrInvalidPayload, e.Type, e.Field)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", ErrMalformedFrame, e.Err)
		}
		return ErrMalformedFrame.Error()
	}
}

func (e *DecodeError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case UnknownType:
		sentinel = ErrUnknownType
	case InvalidPayload:
		sentinel = ErrInvalidPayload
	default:
		sentinel = ErrMalformedFrame
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// ConnectionKind classifies how a room connection ended.
type ConnectionKind string

const (
	OpenFailed     ConnectionKind = "open_failed"
	ClosedByPeer   ConnectionKind = "closed_by_peer"
	TransportError ConnectionKind = "transport_error"
)

// ConnectionError is carried by Closed and Errored session events.
type ConnectionError struct {
	Kind ConnectionKind
	Room string
	Err  error
}

func (e *ConnectionError) sentinel() error {
	switch e.Kind {
	case OpenFailed:
		return ErrOpenFailed
	case ClosedByPeer:
		return ErrClosedByPeer
	default:
		return ErrTransport
	}
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("room %s: %s", e.Room, e.sentinel())
	}
	return fmt.Sprintf("room %s: %s: %v", e.Room, e.sentinel(), e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.sentinel()}
	}
	return []error{e.sentinel(), e.Err}
}
