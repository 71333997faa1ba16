// Package agent provides the live specialist instances of a Roundtable
// session: the Handle owning one specialist's identity and bounded
// conversation history, and the Registry owning the set of handles for one
// session.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/logging"
)

// Handle is a live specialist instance. It owns an immutable Identity, a
// bounded ordered conversation history, an active flag and a memory policy.
// History is mutated only by ProcessMessage (append then possibly trim) and
// Reset; the flag only by Activate/Deactivate. All methods are safe for
// concurrent use.
type Handle struct {
	identity    core.Identity
	instruction string
	memory      core.MemoryPolicy
	responder   core.Responder
	logger      logging.Logger

	mu      sync.Mutex
	history []core.Turn
	active  bool
}

// NewHandle constructs a handle from a validated config. The personality and
// memory defaults have already been applied by the registry.
func NewHandle(identity core.Identity, personality core.Personality, memory core.MemoryPolicy, knowledgeBase string, responder core.Responder, logger logging.Logger) *Handle {
	return &Handle{
		identity:    identity,
		instruction: buildInstruction(identity, personality, knowledgeBase),
		memory:      memory,
		responder:   responder,
		logger:      logging.OrNoOp(logger),
	}
}

// buildInstruction renders the specialist's system instruction from its
// identity and personality.
func buildInstruction(id core.Identity, p core.Personality, knowledgeBase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.\n\n", id.Name, id.Role)
	fmt.Fprintf(&b, "ROLE DESCRIPTION:\n%s\n\n", id.Description)
	fmt.Fprintf(&b, "PERSONALITY:\n- Tone: %s\n- Verbosity: %s\n- Style: %s\n\n", p.Tone, p.Verbosity, p.Style)
	b.WriteString("COMMUNICATION STYLE:\n")
	b.WriteString("- Speak naturally as if in a real conversation\n")
	b.WriteString("- Be conversational but stay in character\n")
	b.WriteString("- Remember you are in a multi-agent discussion\n\n")
	b.WriteString("IMPORTANT:\n")
	fmt.Fprintf(&b, "- Always respond as %s\n", id.Name)
	b.WriteString("- Stay in character throughout the conversation\n")
	b.WriteString("- Be collaborative with other agents in the discussion\n")
	b.WriteString("- When you don't have expertise on a topic, defer to other agents")
	if knowledgeBase != "" {
		fmt.Fprintf(&b, "\n\nKNOWLEDGE BASE: You have access to %s", knowledgeBase)
	}
	return b.String()
}

// Identity returns the immutable identity of this specialist.
func (h *Handle) Identity() core.Identity { return h.identity }

// ProcessMessage appends the user turn, generates a reply through the
// Responder and appends it, trimming the history to the memory policy.
// Responder failures are returned wrapped as CollaboratorError; the user
// turn is kept so the specialist still has the context on a later retry.
func (h *Handle) ProcessMessage(ctx context.Context, message string) (string, error) {
	h.mu.Lock()
	h.history = append(h.history, core.NewTurn("user", message))
	history := make([]core.Turn, len(h.history)-1)
	copy(history, h.history[:len(h.history)-1])
	h.mu.Unlock()

	reply, err := h.responder.Generate(ctx, h.instruction, message, history)
	if err != nil {
		h.logger.Error("agent response failed", "agent", h.identity.Name, "error", err)
		return "", core.NewCollaboratorError(h.identity.Name, err)
	}

	h.mu.Lock()
	h.history = append(h.history, core.NewTurn("assistant", reply))
	h.trimLocked()
	h.mu.Unlock()

	return reply, nil
}

// trimLocked evicts oldest turns so len(history) <= 2*HistoryLimit. Caller
// holds h.mu.
func (h *Handle) trimLocked() {
	if !h.memory.Enabled || h.memory.HistoryLimit <= 0 {
		return
	}
	limit := h.memory.HistoryLimit * 2
	if len(h.history) > limit {
		h.history = append(h.history[:0:0], h.history[len(h.history)-limit:]...)
	}
}

// Collaborate asks the specialist for its perspective on topic, passing the
// other participants as peer context.
func (h *Handle) Collaborate(ctx context.Context, topic string, peers []string) (string, error) {
	prompt := fmt.Sprintf(
		"You are in a discussion with %s about: %s\n\nProvide your expert perspective as %s.\nIf this is outside your expertise, acknowledge that and suggest which colleague might be better suited.",
		strings.Join(peers, ", "), topic, h.identity.Role,
	)
	return h.ProcessMessage(ctx, prompt)
}

// Reset clears the conversation history.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = nil
	h.logger.Debug("agent history reset", "agent", h.identity.Name)
}

// Activate marks the agent as active in the conversation.
func (h *Handle) Activate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = true
}

// Deactivate marks the agent as inactive.
func (h *Handle) Deactivate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = false
}

// IsActive reports whether the agent is active.
func (h *Handle) IsActive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// History returns a copy of the retained conversation history.
func (h *Handle) History() []core.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]core.Turn, len(h.history))
	copy(out, h.history)
	return out
}

// Summary returns the introspection snapshot of this agent.
func (h *Handle) Summary() core.AgentSummary {
	h.mu.Lock()
	defer h.mu.Unlock()
	return core.AgentSummary{
		ID:                h.identity.ID,
		Name:              h.identity.Name,
		Role:              h.identity.Role,
		IsActive:          h.active,
		ConversationTurns: len(h.history) / 2,
		Voice:             h.identity.Voice,
		SpeechSpeed:       h.identity.SpeechSpeed,
	}
}
