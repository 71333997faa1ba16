package core

// RoutingKind classifies a dispatcher routing decision.
type RoutingKind int

const (
	// RoutingGeneral means no specialist is invoked; the coordination text
	// itself is the reply.
	RoutingGeneral RoutingKind = iota
	// RoutingSingle targets exactly one specialist.
	RoutingSingle
	// RoutingMultiple targets several specialists in speaking order.
	RoutingMultiple
	// RoutingClarification asks the user for more information.
	RoutingClarification
)

// String returns the wire name of the routing kind.
func (k RoutingKind) String() string {
	switch k {
	case RoutingSingle:
		return "single"
	case RoutingMultiple:
		return "multiple"
	case RoutingClarification:
		return "clarification"
	default:
		return "general"
	}
}

// RoutingDecision is the dispatcher's per-turn choice of target agent(s).
// TargetAgentIDs is ordered: position equals speaking order. Produced fresh
// per user input and never persisted.
type RoutingDecision struct {
	Kind             RoutingKind
	TargetAgentIDs   []string
	CoordinationText string
}
