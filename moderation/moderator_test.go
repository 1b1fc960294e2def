package moderation

import (
	"consensus-chat/errors"
	"consensus-chat/internal"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// Dictionaries are written the way CENSORED_WORDS is configured.
func newRoomModerator(t *testing.T, censoredWords string) Moderator {
	t.Helper()
	mod, err := NewModerator(internal.SplitList(censoredWords), replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	return mod
}

func TestModerator_RoomPost(t *testing.T) {
	mod := newRoomModerator(t, "spoiler, scam ,phishing")

	tests := []struct {
		name     string
		post     string
		expected string
		found    []string
	}{
		{
			name:     "Single word keeps the rest of the post",
			post:     "No spoiler please",
			expected: "No ******* please",
			found:    []string{"spoiler"},
		},
		{
			name:     "Dollar sign standing for an s",
			post:     "That offer is a $cam",
			expected: "That offer is a ****",
			found:    []string{"scam"},
		},
		{
			name:     "Several words reported in post order",
			post:     "Ph1sh1ng link, then a SCAM",
			expected: "******** link, then a ****",
			found:    []string{"phishing", "scam"},
		},
		{
			name:     "Dots between letters are censored too",
			post:     "s.p.o.i.l.e.r alert",
			expected: "************* alert",
			found:    []string{"spoiler"},
		},
		{
			name:     "Repeated word",
			post:     "scam scam",
			expected: "**** ****",
			found:    []string{"scam", "scam"},
		},
		{
			name:     "Clean post with accents",
			post:     "Café au lait at noon",
			expected: "Café au lait at noon",
			found:    nil,
		},
		{
			name:     "Empty post",
			post:     "",
			expected: "",
			found:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, found := mod.Censor(tt.post)
			require.Equal(t, tt.expected, content)
			require.Equal(t, tt.found, found)
		})
	}
}

func TestModerator_DictionaryCleanup(t *testing.T) {
	req := require.New(t)

	// Given noise entries and the same word twice with another case
	mod := newRoomModerator(t, "--, ..., scam, SCAM")

	// Then the first spelling is the one reported
	content, found := mod.Censor("SCAM alert")
	req.Equal("**** alert", content)
	req.Equal([]string{"scam"}, found)

	// Then punctuation alone is never censored
	content, found = mod.Censor("Wait -- what ...")
	req.Equal("Wait -- what ...", content)
	req.Nil(found)
}

func TestModerator_EmptyDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given CENSORED_WORDS made only of noise
	_, err := NewModerator(internal.SplitList(" ..., -- ,"), replacementChar, log)

	// Then no automaton is built
	req.ErrorIs(err, errors.ErrEmptyDictionary)
}
