package ui

import (
	"bytes"
	"consensus-chat/domain"
	ce "consensus-chat/errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func TestTerminal_RendersOnlyNewMessages(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	// Given an open room with one message
	state := domain.NewSession("R1")
	state.Connection = domain.Open
	state.Messages = []domain.Message{domain.UserMessage{SenderName: "alice", Content: "hello", Timestamp: at}}
	term.Render(state)

	req.Contains(out.String(), "====== R1 ======")
	req.Contains(out.String(), "* R1 is open")
	req.Contains(out.String(), "[09:30:00] alice: hello")

	// When an agent starts thinking then answers
	out.Reset()
	typing := state
	typing.TypingAgentActive = true
	term.Render(typing)
	req.Equal(thinking+"\n", out.String())

	out.Reset()
	answered := typing
	answered.Messages = append(typing.Messages[:1:1], domain.ConsensusMessage{
		Content:        "Both agree",
		Timestamp:      at,
		ModeUsed:       domain.ModeOpposition,
		AgentResponses: []domain.AgentContribution{{AgentName: "Claude", Content: "yes"}},
	})
	answered.TypingAgentActive = false
	term.Render(answered)

	// Then only the consensus and its breakdown are printed
	lines := out.String()
	req.NotContains(lines, "alice")
	req.Contains(lines, "[09:30:00] Consensus (Debate): Both agree")
	req.Contains(lines, "Claude")
	req.Contains(lines, "yes")
}

func TestTerminal_ClosedShowsReason(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	state := domain.NewSession("R1")
	state.Connection = domain.Closed
	state.LastError = ce.ErrClosedByPeer
	term.Render(state)

	req.Contains(out.String(), "* R1 is closed: "+ce.ErrClosedByPeer.Error())
}

func TestTerminal_Message(t *testing.T) {
	term := NewTerminal(&bytes.Buffer{}, false)

	tests := []struct {
		name     string
		message  domain.Message
		expected string
	}{
		{name: "User", message: domain.UserMessage{SenderName: "bob", Content: "hi", Timestamp: at}, expected: "[09:30:00] bob: hi"},
		{name: "Agent", message: domain.AgentResponse{AgentName: "GPT", Content: "ok", Timestamp: at, ModeUsed: domain.ModeSupport}, expected: "[09:30:00] GPT (Supplement): ok"},
		{name: "System", message: domain.SystemNotice{Content: "Mode Selected: SUPPORT", Timestamp: at}, expected: "[09:30:00] * Mode Selected: SUPPORT"},
		{name: "User without timestamp", message: domain.UserMessage{SenderName: "bob", Content: "hi"}, expected: "bob: hi"},
		{name: "System without timestamp", message: domain.SystemNotice{Content: "Mode Selected: DEBATE"}, expected: "* Mode Selected: DEBATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, term.Message(tt.message))
		})
	}
}

func TestTables(t *testing.T) {
	req := require.New(t)

	roster := Roster(domain.NewRoster([]string{"bob", "alice"}))
	req.Contains(strings.ToUpper(roster), "ONLINE")
	req.Less(strings.Index(roster, "alice"), strings.Index(roster, "bob"))

	results := Results([]domain.Message{domain.UserMessage{SenderName: "alice", Content: "rust is fast", Timestamp: at}})
	req.Contains(results, "alice")
	req.Contains(results, "rust is fast")
	req.Contains(results, "user")
}
