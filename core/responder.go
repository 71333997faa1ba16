package core

import "context"

// Responder is the external collaborator that produces natural-language
// completions: the routing prompt for the dispatcher and the specialist
// replies for agents. Implementations must honor ctx cancellation and the
// caller-supplied deadline; failures should be wrapped by the caller into a
// CollaboratorError so they stay isolated per agent.
type Responder interface {
	// Generate returns a completion for prompt. instruction is the system
	// instruction (may be empty) and history the prior turns to condition on.
	Generate(ctx context.Context, instruction, prompt string, history []Turn) (string, error)
}
