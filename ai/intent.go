// Package ai holds the scripted agent panel of the development room
// server: an intent classifier picking the aggregation mode and agents
// whose replies are folded into a consensus.
package ai

import (
	"consensus-chat/domain"
	"strings"
	"unicode"
)

var intentKeywords = []struct {
	mode     domain.Mode
	keywords []string
}{
	{mode: domain.ModeOpposition, keywords: []string{"verify", "fact-check", "factcheck", "is it true", "debate", "critique", "check"}},
	{mode: domain.ModeIndependent, keywords: []string{"compare", "versus", "vs", "differences", "alternatives", "which is better"}},
	{mode: domain.ModeSupport, keywords: []string{"how to", "explain", "tutorial", "step by step", "guide"}},
}

// ClassifyIntent maps a query to the aggregation mode its wording asks for.
// Opposition wins over independent, which wins over support; a query with
// no keyword is answered in support mode.
func ClassifyIntent(query string) domain.Mode {
	words := tokenize(query)
	joined := " " + strings.Join(words, " ") + " "
	for _, intent := range intentKeywords {
		for _, keyword := range intent.keywords {
			if strings.Contains(joined, " "+keyword+" ") {
				return intent.mode
			}
		}
	}
	return domain.ModeSupport
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
