package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/responder"
	"github.com/stretchr/testify/assert"
)

func newTestHandle(t *testing.T, resp core.Responder, memory core.MemoryPolicy) *Handle {
	t.Helper()
	identity := core.NewIdentity(core.AgentConfig{
		Name:        "Sarah",
		Role:        "UX Designer",
		Description: "Advocates for the end user",
	})
	return NewHandle(identity, core.DefaultPersonality(), memory, "", resp, nil)
}

func TestHandle_ProcessMessage(t *testing.T) {
	mock := responder.NewMock()
	mock.AddReply("onboarding", "We should simplify the first screen.")
	h := newTestHandle(t, mock, core.DefaultMemoryPolicy())

	reply, err := h.ProcessMessage(context.Background(), "What about the onboarding flow?")

	assert.NoError(t, err)
	assert.Equal(t, "We should simplify the first screen.", reply)

	history := h.History()
	assert.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, reply, history[1].Content)
}

func TestHandle_ProcessMessage_CollaboratorError(t *testing.T) {
	mock := responder.NewMock()
	mock.FailWith(errors.New("upstream unavailable"))
	h := newTestHandle(t, mock, core.DefaultMemoryPolicy())

	_, err := h.ProcessMessage(context.Background(), "hello")

	assert.Error(t, err)
	assert.True(t, core.IsCollaboratorError(err))
	var ce *core.CollaboratorError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, "Sarah", ce.Agent)

	// The user turn is kept so a retry still has context.
	assert.Len(t, h.History(), 1)
}

func TestHandle_HistoryTrimming(t *testing.T) {
	mock := responder.NewMock()
	h := newTestHandle(t, mock, core.MemoryPolicy{Enabled: true, HistoryLimit: 3})

	for i := 0; i < 10; i++ {
		_, err := h.ProcessMessage(context.Background(), fmt.Sprintf("message %d", i))
		assert.NoError(t, err)
	}

	history := h.History()
	assert.Len(t, history, 6) // 2 * HistoryLimit

	// Oldest entries evicted first: the retained window starts at message 7.
	assert.Equal(t, "message 7", history[0].Content)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "message 9", history[4].Content)
}

func TestHandle_HistoryUnboundedWhenMemoryDisabled(t *testing.T) {
	mock := responder.NewMock()
	h := newTestHandle(t, mock, core.MemoryPolicy{Enabled: false})

	for i := 0; i < 10; i++ {
		_, err := h.ProcessMessage(context.Background(), fmt.Sprintf("message %d", i))
		assert.NoError(t, err)
	}
	assert.Len(t, h.History(), 20)
}

func TestHandle_Reset(t *testing.T) {
	mock := responder.NewMock()
	h := newTestHandle(t, mock, core.DefaultMemoryPolicy())

	_, err := h.ProcessMessage(context.Background(), "hello")
	assert.NoError(t, err)
	assert.NotEmpty(t, h.History())

	h.Reset()
	assert.Empty(t, h.History())
}

func TestHandle_ActiveFlag(t *testing.T) {
	h := newTestHandle(t, responder.NewMock(), core.DefaultMemoryPolicy())

	assert.False(t, h.IsActive())
	h.Activate()
	assert.True(t, h.IsActive())
	h.Deactivate()
	assert.False(t, h.IsActive())
}

func TestHandle_Summary(t *testing.T) {
	mock := responder.NewMock()
	h := newTestHandle(t, mock, core.DefaultMemoryPolicy())
	h.Activate()

	_, err := h.ProcessMessage(context.Background(), "hello")
	assert.NoError(t, err)

	sum := h.Summary()
	assert.Equal(t, "Sarah", sum.Name)
	assert.Equal(t, "UX Designer", sum.Role)
	assert.True(t, sum.IsActive)
	assert.Equal(t, 1, sum.ConversationTurns)
}

func TestBuildInstruction(t *testing.T) {
	identity := core.NewIdentity(core.AgentConfig{
		Name:        "Alex",
		Role:        "Product Manager",
		Description: "Owns the roadmap",
	})
	instruction := buildInstruction(identity, core.DefaultPersonality(), "")

	assert.True(t, strings.HasPrefix(instruction, "You are Alex, a Product Manager."))
	assert.Contains(t, instruction, "ROLE DESCRIPTION:\nOwns the roadmap")
	assert.Contains(t, instruction, "Tone: Professional")
	assert.Contains(t, instruction, "Always respond as Alex")
	assert.NotContains(t, instruction, "KNOWLEDGE BASE")
}

func TestBuildInstruction_KnowledgeBase(t *testing.T) {
	identity := core.NewIdentity(core.AgentConfig{
		Name: "Alex", Role: "Product Manager", Description: "Owns the roadmap",
	})
	instruction := buildInstruction(identity, core.DefaultPersonality(), "the Q3 planning docs")

	assert.Contains(t, instruction, "KNOWLEDGE BASE: You have access to the Q3 planning docs")
}

func TestHandle_Collaborate(t *testing.T) {
	mock := responder.NewMock()
	mock.AddReply("discussion with Alex", "From a UX angle, keep it simple.")
	h := newTestHandle(t, mock, core.DefaultMemoryPolicy())

	reply, err := h.Collaborate(context.Background(), "signup redesign", []string{"Alex"})

	assert.NoError(t, err)
	assert.Equal(t, "From a UX angle, keep it simple.", reply)
}
