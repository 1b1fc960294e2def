package ai

import (
	"consensus-chat/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected domain.Mode
	}{
		{name: "Comparison", query: "Compare React vs Vue", expected: domain.ModeIndependent},
		{name: "Versus alone", query: "Postgres VS MySQL?", expected: domain.ModeIndependent},
		{name: "Fact check", query: "Verify if coffee stunts growth", expected: domain.ModeOpposition},
		{name: "Opposition wins", query: "Is it true that Go vs Rust is settled?", expected: domain.ModeOpposition},
		{name: "Tutorial", query: "Explain how goroutines work", expected: domain.ModeSupport},
		{name: "No keyword", query: "hello there", expected: domain.ModeSupport},
		{name: "Keyword inside a word", query: "checkout the canvas", expected: domain.ModeSupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ClassifyIntent(tt.query))
		})
	}
}

func TestPanel_Respond(t *testing.T) {
	req := require.New(t)

	// Given agents configured out of order, with a duplicate and a blank
	panel := NewPanel([]string{"Scout", " ", "Critic", "Scout", "Analyst"})
	req.Equal([]string{"Analyst", "Critic", "Scout"}, panel.Agents())

	// When a comparison is asked
	reply := panel.Respond("Compare Go and Rust")

	// Then every agent answers once, sorted by name
	req.Equal(domain.ModeIndependent, reply.Mode)
	req.Len(reply.Responses, 3)
	req.Equal("Analyst", reply.Responses[0].AgentName)
	req.Equal("Scout", reply.Responses[2].AgentName)
	for _, r := range reply.Responses {
		req.NotEmpty(r.Content)
	}
	req.Contains(reply.Consensus, "Independent consensus of Analyst, Critic, Scout")

	req.True(NewPanel(nil).Empty())
}
