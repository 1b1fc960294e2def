package protocol

import (
	"consensus-chat/domain"
	ce "consensus-chat/errors"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TimestampLayout is the zone-less ISO layout servers stamp frames with.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Outbound is the only frame a client sends.
type Outbound struct {
	Message string `json:"message"`
}

func EncodeOutbound(text string) (string, error) {
	b, err := json.Marshal(Outbound{Message: text})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeOutbound(raw string) (Outbound, error) {
	var out Outbound
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Outbound{}, &ce.DecodeError{Kind: ce.Malformed, Err: err}
	}
	return out, nil
}

// RoomURL builds ws(s)://<host>/api/ws/{room}?token={credential} from the
// REST origin. The websocket scheme follows the origin one.
func RoomURL(origin string, room domain.RoomID, credential string) (string, error) {
	if strings.TrimSpace(string(room)) == "" {
		return "", ce.ErrMissingRoom
	}
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", fmt.Errorf("parse api origin %q: %w", origin, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ce.ErrUnsupportedURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", ce.ErrUnsupportedURL, origin)
	}
	base := strings.TrimRight(u.Path, "/")
	u.Path = base + "/api/ws/" + string(room)
	u.RawPath = base + "/api/ws/" + url.PathEscape(string(room))
	u.RawQuery = url.Values{"token": []string{credential}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}

// Server side frames. The development room server writes these; the
// decoder above reads them back.

type Contribution struct {
	AgentName string `json:"agent_name"`
	Content   string `json:"content"`
}

type MessageFrame struct {
	Type           string         `json:"type"`
	SenderID       string         `json:"sender_id,omitempty"`
	SenderName     string         `json:"sender_name,omitempty"`
	AgentName      string         `json:"agent_name,omitempty"`
	Content        string         `json:"content"`
	ModeUsed       string         `json:"mode_used,omitempty"`
	AgentResponses []Contribution `json:"agent_responses,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
}

// RosterFrame always carries online_users, even when the room is empty.
type RosterFrame struct {
	Type        string   `json:"type"`
	UserName    string   `json:"user_name"`
	OnlineUsers []string `json:"online_users"`
	Timestamp   string   `json:"timestamp,omitempty"`
}

type TypingFrame struct {
	Type string `json:"type"`
}

func NewRosterFrame(kind, userName string, online []string, at time.Time) RosterFrame {
	if online == nil {
		online = []string{}
	}
	return RosterFrame{Type: kind, UserName: userName, OnlineUsers: online, Timestamp: FormatTimestamp(at)}
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func Encode(frame any) (string, error) {
	b, err := json.Marshal(frame)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
