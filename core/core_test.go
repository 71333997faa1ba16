package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentConfigValidate(t *testing.T) {
	valid := AgentConfig{Name: "Alex", Role: "Product Manager", Description: "Owns the roadmap"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		cfg  AgentConfig
	}{
		{"missing name", AgentConfig{Role: "Product Manager", Description: "x"}},
		{"missing role", AgentConfig{Name: "Alex", Description: "x"}},
		{"missing description", AgentConfig{Name: "Alex", Role: "Product Manager"}},
		{"blank name", AgentConfig{Name: "   ", Role: "Product Manager", Description: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAgentConfigValidate_MemoryPolicy(t *testing.T) {
	cfg := AgentConfig{
		Name: "Alex", Role: "Product Manager", Description: "x",
		Memory: &MemoryPolicy{Enabled: true, HistoryLimit: 0},
	}
	assert.ErrorIs(t, cfg.Validate(), ErrValidation)

	cfg.Memory = &MemoryPolicy{Enabled: false, HistoryLimit: 0}
	assert.NoError(t, cfg.Validate())
}

func TestRoleKindOf(t *testing.T) {
	assert.Equal(t, RoleProductManager, RoleKindOf("Product Manager"))
	assert.Equal(t, RoleProductManager, RoleKindOf("product manager"))
	assert.Equal(t, RoleUXDesigner, RoleKindOf("UX Designer"))
	assert.Equal(t, RoleGeneric, RoleKindOf("Philosopher"))
	assert.Equal(t, RoleGeneric, RoleKindOf(""))
}

func TestRoleKindCapabilities(t *testing.T) {
	caps := RoleUXDesigner.Capabilities()
	assert.Contains(t, caps, "conversation")
	assert.Contains(t, caps, "collaboration")
	assert.Contains(t, caps, "user-research")

	generic := RoleGeneric.Capabilities()
	assert.Equal(t, []string{"conversation", "collaboration"}, generic)
}

func TestNewIdentity_GeneratesID(t *testing.T) {
	id1 := NewIdentity(AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})
	id2 := NewIdentity(AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})

	assert.NotEmpty(t, id1.ID)
	assert.NotEqual(t, id1.ID, id2.ID)
	assert.Equal(t, RoleProductManager, id1.Kind)
	assert.Contains(t, id1.Capabilities, "prioritization")
}

func TestNewIdentity_KeepsSuppliedID(t *testing.T) {
	id := NewIdentity(AgentConfig{ID: "agent-1", Name: "Alex", Role: "Product Manager", Description: "x"})
	assert.Equal(t, "agent-1", id.ID)
}

func TestCollaboratorError(t *testing.T) {
	cause := errors.New("boom")
	err := NewCollaboratorError("Sarah", cause)

	assert.True(t, IsCollaboratorError(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.Transient)
	assert.Contains(t, err.Error(), "Sarah")

	timeout := NewCollaboratorError("Sarah", context.DeadlineExceeded)
	assert.True(t, timeout.Transient)
	cancelled := NewCollaboratorError("Sarah", context.Canceled)
	assert.True(t, cancelled.Transient)

	assert.False(t, IsCollaboratorError(errors.New("plain")))
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(MessageRequest, "sender", "recipient", "hello")
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, MessageRequest, msg.Type)
	assert.Equal(t, "sender", msg.SenderID)
	assert.Equal(t, "recipient", msg.RecipientID)
	assert.Equal(t, "hello", msg.Content)
	assert.Nil(t, msg.Metadata)

	tagged := msg.WithMetadata(map[string]string{"action": "get_status"})
	assert.Equal(t, "get_status", tagged.Metadata["action"])
	assert.Nil(t, msg.Metadata) // original untouched
}

func TestNewTurn_UTC(t *testing.T) {
	turn := NewTurn("user", "hello")
	assert.Equal(t, "user", turn.Role)
	assert.Equal(t, "hello", turn.Content)
	assert.Equal(t, "UTC", turn.Timestamp.Location().String())
}

func TestRoutingKindString(t *testing.T) {
	assert.Equal(t, "general", RoutingGeneral.String())
	assert.Equal(t, "single", RoutingSingle.String())
	assert.Equal(t, "multiple", RoutingMultiple.String())
	assert.Equal(t, "clarification", RoutingClarification.String())
}
