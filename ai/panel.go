package ai

import (
	"consensus-chat/domain"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Reply is what the panel answers to one user query.
type Reply struct {
	Mode      domain.Mode
	Responses []domain.AgentContribution
	Consensus string
}

// Panel answers queries with one scripted reply per agent.
type Panel struct {
	agents []string
}

// NewPanel keeps the distinct non blank agent names, sorted.
func NewPanel(agents []string) *Panel {
	names := lo.Uniq(lo.FilterMap(agents, func(name string, _ int) (string, bool) {
		name = strings.TrimSpace(name)
		return name, name != ""
	}))
	slices.Sort(names)
	return &Panel{agents: names}
}

func (p *Panel) Agents() []string {
	return slices.Clone(p.agents)
}

func (p *Panel) Empty() bool {
	return len(p.agents) == 0
}

// Respond classifies query and lets every agent answer under that mode.
// Responses come sorted by agent name.
func (p *Panel) Respond(query string) Reply {
	mode := ClassifyIntent(query)
	topic := strings.TrimSpace(query)
	responses := make([]domain.AgentContribution, 0, len(p.agents))
	for i, agent := range p.agents {
		responses = append(responses, domain.AgentContribution{
			AgentName: agent,
			Content:   answer(mode, i, topic),
		})
	}
	return Reply{Mode: mode, Responses: responses, Consensus: consensus(mode, topic, responses)}
}

func answer(mode domain.Mode, rank int, topic string) string {
	switch mode {
	case domain.ModeOpposition:
		if rank%2 == 1 {
			return fmt.Sprintf("I challenge the previous claim about %q: the evidence is weaker than it looks.", topic)
		}
		return fmt.Sprintf("Here is the strongest case for %q.", topic)
	case domain.ModeIndependent:
		return fmt.Sprintf("Perspective %d on %q, formed without reading the others.", rank+1, topic)
	default:
		if rank == 0 {
			return fmt.Sprintf("A first answer to %q.", topic)
		}
		return fmt.Sprintf("Building on the above, detail %d for %q.", rank, topic)
	}
}

func consensus(mode domain.Mode, topic string, responses []domain.AgentContribution) string {
	names := lo.Map(responses, func(r domain.AgentContribution, _ int) string { return r.AgentName })
	return fmt.Sprintf("%s consensus of %s on %q.", mode.Label(), strings.Join(names, ", "), topic)
}
