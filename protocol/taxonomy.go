package protocol

// frameKind is the canonical shape a wire discriminator maps onto.
type frameKind int

const (
	userKind frameKind = iota + 1
	agentKind
	consensusKind
	systemKind
	joinedKind
	leftKind
	typingKind
)

// Wire discriminators. The server history replay still uses the first
// taxonomy (user, agent, system) while live broadcasts may use the second.
const (
	TypeUser          = "user"
	TypeAgent         = "agent"
	TypeSystem        = "system"
	TypeUserMessage   = "user_message"
	TypeAgentResponse = "agent_response"
	TypeConsensus     = "consensus"
	TypeUserJoined    = "user_joined"
	TypeUserLeft      = "user_left"
	TypeTyping        = "typing"
)

// ConsensusSender is the sender label that turns a system frame into a
// consensus message. Older servers broadcast the final answer that way.
const ConsensusSender = "Consensus"

var taxonomy = map[string]frameKind{
	TypeUser:          userKind,
	TypeUserMessage:   userKind,
	TypeAgent:         agentKind,
	TypeAgentResponse: agentKind,
	TypeConsensus:     consensusKind,
	TypeSystem:        systemKind,
	TypeUserJoined:    joinedKind,
	TypeUserLeft:      leftKind,
	TypeTyping:        typingKind,
}
