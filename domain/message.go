// Package domain contains core concepts of the consensus chat client.
// This file defines the Message variants kept in a session history.
// Messages are immutable once appended to a session.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindUser      MessageKind = "user"
	KindAgent     MessageKind = "agent"
	KindConsensus MessageKind = "consensus"
	KindSystem    MessageKind = "system"
)

// Message is the closed set of entries a session history can hold.
type Message interface {
	Kind() MessageKind
	MessageID() uuid.UUID
	Text() string
	SentAt() time.Time
	isMessage()
}

// UserMessage is text written by a human participant.
type UserMessage struct {
	ID         uuid.UUID
	SenderID   string
	SenderName string
	Content    string
	Timestamp  time.Time
}

// AgentResponse is a single agent's reply.
type AgentResponse struct {
	ID        uuid.UUID
	AgentID   string
	AgentName string
	Content   string
	Timestamp time.Time
	ModeUsed  Mode
}

// AgentContribution is one agent output aggregated into a consensus.
type AgentContribution struct {
	AgentName string
	Content   string
}

// ConsensusMessage summarizes several agent outputs under one aggregation mode.
// AgentResponses keeps the order the server sent them in.
type ConsensusMessage struct {
	ID             uuid.UUID
	Content        string
	Timestamp      time.Time
	ModeUsed       Mode
	AgentResponses []AgentContribution
}

// SystemNotice is an informational line (mode announcements, joins...).
type SystemNotice struct {
	ID        uuid.UUID
	Content   string
	Timestamp time.Time
}

func (m UserMessage) Kind() MessageKind    { return KindUser }
func (m UserMessage) MessageID() uuid.UUID { return m.ID }
func (m UserMessage) Text() string         { return m.Content }
func (m UserMessage) SentAt() time.Time    { return m.Timestamp }
func (UserMessage) isMessage()             {}

func (m AgentResponse) Kind() MessageKind    { return KindAgent }
func (m AgentResponse) MessageID() uuid.UUID { return m.ID }
func (m AgentResponse) Text() string         { return m.Content }
func (m AgentResponse) SentAt() time.Time    { return m.Timestamp }
func (AgentResponse) isMessage()             {}

func (m ConsensusMessage) Kind() MessageKind    { return KindConsensus }
func (m ConsensusMessage) MessageID() uuid.UUID { return m.ID }
func (m ConsensusMessage) Text() string         { return m.Content }
func (m ConsensusMessage) SentAt() time.Time    { return m.Timestamp }
func (ConsensusMessage) isMessage()             {}

func (m SystemNotice) Kind() MessageKind    { return KindSystem }
func (m SystemNotice) MessageID() uuid.UUID { return m.ID }
func (m SystemNotice) Text() string         { return m.Content }
func (m SystemNotice) SentAt() time.Time    { return m.Timestamp }
func (SystemNotice) isMessage()             {}

// Author returns the display name attached to a message, if any.
func Author(m Message) string {
	switch msg := m.(type) {
	case UserMessage:
		return msg.SenderName
	case AgentResponse:
		return msg.AgentName
	case ConsensusMessage:
		return "Consensus"
	default:
		return ""
	}
}

// Mode is the aggregation mode the agents were combined under upstream.
type Mode string

const (
	ModeUnspecified Mode = ""
	ModeIndependent Mode = "independent"
	ModeSupport     Mode = "support"
	ModeOpposition  Mode = "opposition"
)

// ParseMode accepts the wire names and their display aliases.
// Anything else maps to ModeUnspecified.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "independent", "comparison":
		return ModeIndependent
	case "support", "supplement":
		return ModeSupport
	case "opposition", "debate":
		return ModeOpposition
	default:
		return ModeUnspecified
	}
}

// Label is the human name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeIndependent:
		return "Independent"
	case ModeSupport:
		return "Supplement"
	case ModeOpposition:
		return "Debate"
	default:
		return "Unspecified"
	}
}
