// Package ui renders session snapshots on a terminal.
// It only reads snapshots and never changes session state.
package ui

import (
	"consensus-chat/domain"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
)

const thinking = "agents are thinking..."

var (
	styleUser      = color.New(color.FgCyan, color.OpBold)
	styleAgent     = color.New(color.FgYellow)
	styleConsensus = color.New(color.FgGreen, color.OpBold)
	styleSystem    = color.New(color.FgGray)
	styleError     = color.New(color.FgRed)
	styleHeader    = color.New(color.BgBlack, color.FgGreen)
)

// Terminal prints what changed between two snapshots of a session.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
	last    domain.Session
}

func NewTerminal(out io.Writer, colours bool) *Terminal {
	return &Terminal{out: out, colours: colours, last: domain.NewSession("")}
}

// Render is meant to be registered as a facade subscriber.
func (t *Terminal) Render(next domain.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.last
	t.last = next

	seen := len(prev.Messages)
	if next.RoomID != prev.RoomID || len(next.Messages) < seen {
		t.println(t.paint(styleHeader, fmt.Sprintf("  ====== %s ======", next.RoomID)))
		seen = 0
	}
	if next.Connection != prev.Connection || next.RoomID != prev.RoomID {
		t.println(t.Connection(next))
	}
	for _, m := range next.Messages[seen:] {
		t.println(t.Message(m))
		if c, ok := m.(domain.ConsensusMessage); ok && len(c.AgentResponses) > 0 {
			t.print(Breakdown(c))
		}
	}
	if next.TypingAgentActive && !prev.TypingAgentActive {
		t.println(t.paint(styleSystem, thinking))
	}
}

// Message formats a single history entry on one line.
// Entries without a timestamp get no time prefix.
func (t *Terminal) Message(m domain.Message) string {
	at := ""
	if !m.SentAt().IsZero() {
		at = "[" + m.SentAt().Format("15:04:05") + "] "
	}
	switch msg := m.(type) {
	case domain.UserMessage:
		return fmt.Sprintf("%s%s: %s", at, t.paint(styleUser, msg.SenderName), msg.Content)
	case domain.AgentResponse:
		return fmt.Sprintf("%s%s (%s): %s", at, t.paint(styleAgent, msg.AgentName), msg.ModeUsed.Label(), msg.Content)
	case domain.ConsensusMessage:
		return fmt.Sprintf("%s%s (%s): %s", at, t.paint(styleConsensus, "Consensus"), msg.ModeUsed.Label(), msg.Content)
	default:
		return t.paint(styleSystem, fmt.Sprintf("%s* %s", at, m.Text()))
	}
}

// Connection describes the connection state and, once closed, the reason.
func (t *Terminal) Connection(s domain.Session) string {
	line := fmt.Sprintf("* %s is %s", s.RoomID, s.Connection)
	if s.Connection == domain.Closed && s.LastError != nil {
		return t.paint(styleError, line+": "+s.LastError.Error())
	}
	return t.paint(styleSystem, line)
}

// Notice prints a local line that is not part of the session.
func (t *Terminal) Notice(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.println(t.paint(styleSystem, fmt.Sprintf(format, args...)))
}

func (t *Terminal) Error(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.println(t.paint(styleError, "! "+err.Error()))
}

// Table prints a pre-rendered table as is.
func (t *Terminal) Table(table string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.print(table)
}

func (t *Terminal) paint(style color.Style, text string) string {
	if !t.colours {
		return text
	}
	return style.Render(text)
}

func (t *Terminal) println(line string) {
	_, _ = io.WriteString(t.out, strings.TrimRight(line, "\n")+"\n")
}

func (t *Terminal) print(text string) {
	_, _ = io.WriteString(t.out, text)
}
