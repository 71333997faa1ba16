package responder

import (
	"fmt"
	"strings"
	"sync"

	"context"

	"github.com/launchpadhq/roundtable/core"
)

// Mock is a lightweight in-memory Responder useful for tests and examples.
// Canned replies are matched by substring against the prompt; unmatched
// prompts echo a deterministic fallback. An optional error can be armed to
// simulate collaborator failures.
type Mock struct {
	mu      sync.Mutex
	replies []cannedReply
	err     error
	calls   int
}

type cannedReply struct {
	match string
	text  string
}

// NewMock constructs an empty Mock.
func NewMock() *Mock { return &Mock{} }

// AddReply registers a canned completion returned when the prompt contains
// match. Replies are checked in registration order.
func (m *Mock) AddReply(match, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, cannedReply{match: match, text: text})
}

// FailWith arms err; every subsequent Generate call returns it until
// FailWith(nil) is called.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many Generate calls have been made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements core.Responder.
func (m *Mock) Generate(ctx context.Context, instruction, prompt string, history []core.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.replies {
		if strings.Contains(prompt, r.match) {
			return r.text, nil
		}
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}
