package projection

import (
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	ce "consensus-chat/errors"
	"consensus-chat/protocol"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openSession(room domain.RoomID) domain.Session {
	return Apply(connecting(room), event.Opened{Room: room})
}

func connecting(room domain.RoomID) domain.Session {
	return Apply(domain.NewSession(room), event.Connecting{Room: room})
}

func user(name, content string) event.MessageReceived {
	return event.MessageReceived{Message: domain.UserMessage{ID: uuid.New(), SenderID: name, SenderName: name, Content: content}}
}

func TestApply_AppendOnlyOrdering(t *testing.T) {
	req := require.New(t)
	state := openSession("R1")

	// Given a mix of messages and ephemeral signals
	events := []event.Event{
		user("Alice", "first"),
		event.AgentTyping{},
		event.MessageReceived{Message: domain.AgentResponse{ID: uuid.New(), AgentName: "Agent 1", Content: "second"}},
		event.RosterChanged{Kind: event.Joined, UserID: "bob", OnlineUsers: domain.Roster{"alice", "bob"}},
		event.MessageReceived{Message: domain.SystemNotice{ID: uuid.New(), Content: "third"}},
		event.MessageReceived{Message: domain.ConsensusMessage{ID: uuid.New(), Content: "fourth"}},
	}

	// When they are folded
	state = Fold(state, events...)

	// Then only messages are kept, in arrival order
	req.Len(state.Messages, 4)
	texts := make([]string, 0, len(state.Messages))
	for _, m := range state.Messages {
		texts = append(texts, m.Text())
	}
	req.Equal([]string{"first", "second", "third", "fourth"}, texts)
}

func TestApply_SnapshotsAreNotModified(t *testing.T) {
	req := require.New(t)
	state := Fold(openSession("R1"), user("Alice", "a"), user("Alice", "b"))

	// Given two snapshots derived from the same parent
	left := Apply(state, user("Alice", "left"))
	right := Apply(state, user("Alice", "right"))

	// Then neither overwrote the other nor the parent
	req.Len(state.Messages, 2)
	req.Equal("left", left.Messages[2].Text())
	req.Equal("right", right.Messages[2].Text())
}

func TestApply_TypingClearsOnConsensus(t *testing.T) {
	req := require.New(t)

	state := Apply(openSession("R1"), event.AgentTyping{})
	req.True(state.TypingAgentActive)
	req.Empty(state.Messages)

	state = Apply(state, event.MessageReceived{Message: domain.ConsensusMessage{ID: uuid.New(), Content: "done"}})
	req.False(state.TypingAgentActive)
}

func TestApply_TypingSurvivesAgentResponses(t *testing.T) {
	req := require.New(t)

	state := Fold(openSession("R1"),
		event.AgentTyping{},
		event.MessageReceived{Message: domain.AgentResponse{ID: uuid.New(), AgentName: "Agent 1", Content: "x"}},
		user("Alice", "still there?"),
	)
	req.True(state.TypingAgentActive)
}

func TestApply_TypingClearsOnDisconnect(t *testing.T) {
	req := require.New(t)
	cause := &ce.ConnectionError{Kind: ce.ClosedByPeer, Room: "R1"}

	tests := []struct {
		name string
		evt  event.Event
	}{
		{name: "Closed", evt: event.Closed{Room: "R1", Err: cause}},
		{name: "Errored", evt: event.Errored{Room: "R1", Err: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := Fold(openSession("R1"), event.AgentTyping{}, tt.evt)
			req.False(state.TypingAgentActive)
			req.Equal(domain.Closed, state.Connection)
			req.False(state.CanSend())
			req.ErrorIs(state.LastError, ce.ErrClosedByPeer)
		})
	}
}

func TestApply_RosterReconciliation(t *testing.T) {
	req := require.New(t)
	decoder := protocol.NewDecoder()
	state := openSession("R1")

	// Given a join then a leave, both decoded from the wire
	for _, raw := range []string{
		`{"type":"user_joined","user_name":"b","online_users":["a","b"]}`,
		`{"type":"user_left","user_name":"b","online_users":["a"]}`,
	} {
		evt, err := decoder.Decode(raw)
		req.NoError(err)
		state = Apply(state, evt)
	}

	// Then the roster matches the latest snapshot and history is untouched
	req.Equal(domain.Roster{"a"}, state.OnlineUsers)
	req.True(state.OnlineUsers.Contains("a"))
	req.False(state.OnlineUsers.Contains("b"))
	req.Empty(state.Messages)
}

func TestApply_ConnectionTransitions(t *testing.T) {
	req := require.New(t)

	state := connecting("R1")
	req.False(state.CanSend())

	// Events for another room are ignored
	state = Apply(state, event.Opened{Room: "R2"})
	req.Equal(domain.Connecting, state.Connection)

	state = Apply(state, event.Opened{Room: "R1"})
	req.Equal(domain.Open, state.Connection)
	req.True(state.CanSend())
	req.NoError(state.LastError)

	// Closing without a cause keeps no error
	state = Apply(state, event.Closed{Room: "R1"})
	req.Equal(domain.Closed, state.Connection)
	req.NoError(state.LastError)
}

func TestApply_Connecting(t *testing.T) {
	req := require.New(t)

	// Given a room that was closed on a transport error
	state := Apply(openSession("R1"), event.Errored{Room: "R1", Err: ce.ErrTransport})
	req.Equal(domain.Closed, state.Connection)

	// Connecting for another room is ignored
	req.Equal(domain.Closed, Apply(state, event.Connecting{Room: "R2"}).Connection)

	// When the same room connects again the last error is cleared
	state = Apply(state, event.Connecting{Room: "R1"})
	req.Equal(domain.Connecting, state.Connection)
	req.NoError(state.LastError)
	req.False(state.CanSend())
}

func TestApply_IsDeterministic(t *testing.T) {
	req := require.New(t)
	base := openSession("R1")
	evt := user("Alice", "hi")

	req.Equal(Apply(base, evt), Apply(base, evt))
	req.Equal(base, Apply(base, event.MessageReceived{}))
}
