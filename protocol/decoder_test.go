package protocol

import (
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	ce "consensus-chat/errors"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func fixedIDs() Option {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	return WithIDGenerator(func() uuid.UUID { return id })
}

func TestDecoder_MessageVariants(t *testing.T) {
	req := require.New(t)
	decoder := NewDecoder(fixedIDs())
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	at := time.Date(2026, 1, 2, 10, 30, 0, 123456000, time.UTC)

	tests := []struct {
		name     string
		raw      string
		expected event.Event
	}{
		{
			name: "New user_message taxonomy",
			raw:  `{"type":"user_message","sender_name":"Alice","content":"hi"}`,
			expected: event.MessageReceived{Message: domain.UserMessage{
				ID: id, SenderID: "Alice", SenderName: "Alice", Content: "hi",
			}},
		},
		{
			name: "New taxonomy with user_name instead of sender_name",
			raw:  `{"type":"user_message","user_name":"Bob","content":"yo","timestamp":"2026-01-02T10:30:00.123456"}`,
			expected: event.MessageReceived{Message: domain.UserMessage{
				ID: id, SenderID: "Bob", SenderName: "Bob", Content: "yo", Timestamp: at,
			}},
		},
		{
			name: "Legacy user taxonomy keeps sender id",
			raw:  `{"type":"user","sender_id":"u-1","sender_name":"Alice","content":"hello","timestamp":"2026-01-02T10:30:00.123456Z"}`,
			expected: event.MessageReceived{Message: domain.UserMessage{
				ID: id, SenderID: "u-1", SenderName: "Alice", Content: "hello", Timestamp: at,
			}},
		},
		{
			name: "New agent_response taxonomy",
			raw:  `{"type":"agent_response","agent_id":"agent_research","agent_name":"Agent 1","content":"answer"}`,
			expected: event.MessageReceived{Message: domain.AgentResponse{
				ID: id, AgentID: "agent_research", AgentName: "Agent 1", Content: "answer",
			}},
		},
		{
			name: "Legacy agent taxonomy uses sender_name and carries mode",
			raw:  `{"type":"agent","sender_name":"Agent 2","content":"x","mode_used":"opposition"}`,
			expected: event.MessageReceived{Message: domain.AgentResponse{
				ID: id, AgentID: "Agent 2", AgentName: "Agent 2", Content: "x", ModeUsed: domain.ModeOpposition,
			}},
		},
		{
			name: "System notice",
			raw:  `{"type":"system","content":"Mode Selected: SUPPORT"}`,
			expected: event.MessageReceived{Message: domain.SystemNotice{
				ID: id, Content: "Mode Selected: SUPPORT",
			}},
		},
		{
			name: "System frame sent by the consensus label becomes a consensus",
			raw:  `{"type":"system","sender_name":"Consensus","content":"Final","mode_used":"support"}`,
			expected: event.MessageReceived{Message: domain.ConsensusMessage{
				ID: id, Content: "Final", ModeUsed: domain.ModeSupport, AgentResponses: []domain.AgentContribution{},
			}},
		},
		{
			name: "Consensus keeps agent responses in order",
			raw: `{"type":"consensus","content":"Final answer","mode_used":"support",
				"agent_responses":[{"agent_name":"A1","content":"x"},{"agent_name":"A2","content":"y"}]}`,
			expected: event.MessageReceived{Message: domain.ConsensusMessage{
				ID: id, Content: "Final answer", ModeUsed: domain.ModeSupport,
				AgentResponses: []domain.AgentContribution{{AgentName: "A1", Content: "x"}, {AgentName: "A2", Content: "y"}},
			}},
		},
		{
			name: "Consensus without mode",
			raw:  `{"type":"consensus","content":"done"}`,
			expected: event.MessageReceived{Message: domain.ConsensusMessage{
				ID: id, Content: "done", ModeUsed: domain.ModeUnspecified, AgentResponses: []domain.AgentContribution{},
			}},
		},
		{
			name:     "Typing signal",
			raw:      `{"type":"typing"}`,
			expected: event.AgentTyping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := decoder.Decode(tt.raw)
			req.NoError(err)
			req.Equal(tt.expected, evt)
		})
	}
}

func TestDecoder_Roster(t *testing.T) {
	req := require.New(t)
	decoder := NewDecoder()

	// When a join frame carries a roster with duplicates
	evt, err := decoder.Decode(`{"type":"user_joined","user_name":"b","online_users":["b","a","b"]}`)
	req.NoError(err)

	// Then the roster is deduplicated and sorted
	roster, ok := evt.(event.RosterChanged)
	req.True(ok)
	req.Equal(event.Joined, roster.Kind)
	req.Equal(domain.UserID("b"), roster.UserID)
	req.Equal(domain.Roster{"a", "b"}, roster.OnlineUsers)

	// When the last user leaves, an empty roster is still valid
	evt, err = decoder.Decode(`{"type":"user_left","user_name":"a","online_users":[]}`)
	req.NoError(err)
	roster, ok = evt.(event.RosterChanged)
	req.True(ok)
	req.Equal(event.Left, roster.Kind)
	req.Empty(roster.OnlineUsers)
}

func TestDecoder_RejectedFrames(t *testing.T) {
	req := require.New(t)
	decoder := NewDecoder()

	tests := []struct {
		name     string
		raw      string
		sentinel error
		kind     ce.DecodeKind
		field    string
	}{
		{name: "Not JSON", raw: `{not json`, sentinel: ce.ErrMalformedFrame, kind: ce.Malformed},
		{name: "Empty frame", raw: ``, sentinel: ce.ErrMalformedFrame, kind: ce.Malformed},
		{name: "JSON array", raw: `[1,2]`, sentinel: ce.ErrMalformedFrame, kind: ce.Malformed},
		{name: "Unknown type", raw: `{"type":"bogus"}`, sentinel: ce.ErrUnknownType, kind: ce.UnknownType},
		{name: "Missing type", raw: `{"content":"hi"}`, sentinel: ce.ErrUnknownType, kind: ce.UnknownType},
		{name: "User message without content", raw: `{"type":"user_message"}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "content"},
		{name: "User message with sender but no content", raw: `{"type":"user_message","sender_name":"Alice"}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "content"},
		{name: "User message without sender", raw: `{"type":"user_message","content":"hi"}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "sender_name"},
		{name: "Agent without name", raw: `{"type":"agent","content":"x"}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "agent_name"},
		{name: "System without content", raw: `{"type":"system"}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "content"},
		{name: "Roster without online users", raw: `{"type":"user_joined","user_name":"a"}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "online_users"},
		{
			name:     "Consensus entry without agent name",
			raw:      `{"type":"consensus","content":"c","agent_responses":[{"agent_name":"A1","content":"x"},{"content":"y"}]}`,
			sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "agent_responses[1].agent_name",
		},
		{name: "Content with wrong type", raw: `{"type":"user","sender_name":"a","content":5}`, sentinel: ce.ErrInvalidPayload, kind: ce.InvalidPayload, field: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := decoder.Decode(tt.raw)
			req.Nil(evt)
			req.ErrorIs(err, tt.sentinel)

			var decodeErr *ce.DecodeError
			req.True(errors.As(err, &decodeErr))
			req.Equal(tt.kind, decodeErr.Kind)
			if tt.field != "" {
				req.Equal(tt.field, decodeErr.Field)
				req.Contains(err.Error(), tt.field)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	req := require.New(t)
	req.True(parseTimestamp("").IsZero())
	req.True(parseTimestamp("yesterday").IsZero())
	req.Equal(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), parseTimestamp("2026-03-04T05:06:07"))
	req.Equal(time.Date(2026, 3, 4, 4, 6, 7, 0, time.UTC), parseTimestamp("2026-03-04T05:06:07+01:00"))
}
