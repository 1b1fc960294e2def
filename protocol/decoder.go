// Package protocol translates room frames to and from the wire.
// Decode turns one text frame into exactly one event or a DecodeError;
// rejected frames never reach the session.
package protocol

import (
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	ce "consensus-chat/errors"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Required fields come first: they are validated in declaration order
// and the first failure names the field.
type userFrame struct {
	Content    *string `json:"content" validate:"required"`
	SenderName string  `json:"sender_name" validate:"required"`
	SenderID   string  `json:"sender_id"`
	UserID     string  `json:"user_id"`
	UserName   string  `json:"user_name"`
	Timestamp  string  `json:"timestamp"`
}

type agentFrame struct {
	Content    *string `json:"content" validate:"required"`
	AgentName  string  `json:"agent_name" validate:"required"`
	AgentID    string  `json:"agent_id"`
	SenderID   string  `json:"sender_id"`
	SenderName string  `json:"sender_name"`
	ModeUsed   string  `json:"mode_used"`
	Timestamp  string  `json:"timestamp"`
}

type contributionFrame struct {
	AgentName string  `json:"agent_name" validate:"required"`
	Content   *string `json:"content" validate:"required"`
}

type consensusFrame struct {
	Content        *string             `json:"content" validate:"required"`
	ModeUsed       string              `json:"mode_used"`
	AgentResponses []contributionFrame `json:"agent_responses" validate:"dive"`
	Timestamp      string              `json:"timestamp"`
}

type systemFrame struct {
	Content        *string             `json:"content" validate:"required"`
	SenderName     string              `json:"sender_name"`
	ModeUsed       string              `json:"mode_used"`
	AgentResponses []contributionFrame `json:"agent_responses" validate:"dive"`
	Timestamp      string              `json:"timestamp"`
}

type rosterFrame struct {
	UserID      string   `json:"user_id"`
	UserName    string   `json:"user_name"`
	OnlineUsers []string `json:"online_users" validate:"required"`
	Timestamp   string   `json:"timestamp"`
}

type Decoder struct {
	validate *validator.Validate
	newID    func() uuid.UUID
}

type Option func(*Decoder)

// WithIDGenerator replaces the uuid source used for decoded messages.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(d *Decoder) { d.newID = fn }
}

func NewDecoder(opts ...Option) *Decoder {
	v := validator.New()
	// Report JSON names so errors point at the wire field.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	d := &Decoder{validate: v, newID: uuid.New}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses one raw frame.
func (d *Decoder) Decode(raw string) (event.Event, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &head); err != nil {
		return nil, &ce.DecodeError{Kind: ce.Malformed, Err: err}
	}
	if head.Type == nil {
		return nil, &ce.DecodeError{Kind: ce.UnknownType}
	}
	frameType := *head.Type
	kind, ok := taxonomy[frameType]
	if !ok {
		return nil, &ce.DecodeError{Kind: ce.UnknownType, Type: frameType}
	}

	switch kind {
	case userKind:
		var f userFrame
		if err := d.parse(raw, frameType, &f, func() {
			f.SenderName = firstNonBlank(f.SenderName, f.UserName)
		}); err != nil {
			return nil, err
		}
		return event.MessageReceived{Message: domain.UserMessage{
			ID:         d.newID(),
			SenderID:   firstNonBlank(f.SenderID, f.UserID, f.SenderName),
			SenderName: f.SenderName,
			Content:    *f.Content,
			Timestamp:  parseTimestamp(f.Timestamp),
		}}, nil

	case agentKind:
		var f agentFrame
		if err := d.parse(raw, frameType, &f, func() {
			f.AgentName = firstNonBlank(f.AgentName, f.SenderName)
		}); err != nil {
			return nil, err
		}
		return event.MessageReceived{Message: domain.AgentResponse{
			ID:        d.newID(),
			AgentID:   firstNonBlank(f.AgentID, f.SenderID, f.AgentName),
			AgentName: f.AgentName,
			Content:   *f.Content,
			Timestamp: parseTimestamp(f.Timestamp),
			ModeUsed:  domain.ParseMode(f.ModeUsed),
		}}, nil

	case consensusKind:
		var f consensusFrame
		if err := d.parse(raw, frameType, &f, nil); err != nil {
			return nil, err
		}
		return event.MessageReceived{Message: d.consensus(*f.Content, f.ModeUsed, f.AgentResponses, f.Timestamp)}, nil

	case systemKind:
		var f systemFrame
		if err := d.parse(raw, frameType, &f, nil); err != nil {
			return nil, err
		}
		if strings.EqualFold(strings.TrimSpace(f.SenderName), ConsensusSender) {
			return event.MessageReceived{Message: d.consensus(*f.Content, f.ModeUsed, f.AgentResponses, f.Timestamp)}, nil
		}
		return event.MessageReceived{Message: domain.SystemNotice{
			ID:        d.newID(),
			Content:   *f.Content,
			Timestamp: parseTimestamp(f.Timestamp),
		}}, nil

	case joinedKind, leftKind:
		var f rosterFrame
		if err := d.parse(raw, frameType, &f, nil); err != nil {
			return nil, err
		}
		rosterKind := event.Joined
		if kind == leftKind {
			rosterKind = event.Left
		}
		return event.RosterChanged{
			Kind:        rosterKind,
			UserID:      domain.UserID(firstNonBlank(f.UserID, f.UserName)),
			OnlineUsers: domain.NewRoster(f.OnlineUsers),
			At:          parseTimestamp(f.Timestamp),
		}, nil

	default:
		return event.AgentTyping{}, nil
	}
}

// parse unmarshals the full frame, lets the caller fold legacy aliases,
// then checks required fields.
func (d *Decoder) parse(raw, frameType string, target any, normalize func()) error {
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ce.DecodeError{Kind: ce.InvalidPayload, Type: frameType, Field: typeErr.Field, Err: err}
		}
		return &ce.DecodeError{Kind: ce.Malformed, Type: frameType, Err: err}
	}
	if normalize != nil {
		normalize()
	}
	if err := d.validate.Struct(target); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return &ce.DecodeError{Kind: ce.InvalidPayload, Type: frameType, Field: fieldPath(validationErrs[0])}
		}
		return &ce.DecodeError{Kind: ce.InvalidPayload, Type: frameType, Err: err}
	}
	return nil
}

func (d *Decoder) consensus(content, mode string, responses []contributionFrame, ts string) domain.ConsensusMessage {
	return domain.ConsensusMessage{
		ID:        d.newID(),
		Content:   content,
		Timestamp: parseTimestamp(ts),
		ModeUsed:  domain.ParseMode(mode),
		AgentResponses: lo.Map(responses, func(item contributionFrame, _ int) domain.AgentContribution {
			return domain.AgentContribution{AgentName: item.AgentName, Content: *item.Content}
		}),
	}
}

// fieldPath drops the root struct name from the validator namespace:
// "consensusFrame.agent_responses[1].agent_name" -> "agent_responses[1].agent_name".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
