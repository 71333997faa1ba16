package agent

import (
	"testing"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/responder"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	id, err := r.Create(core.AgentConfig{Name: "Alex", Role: "Product Manager", Description: "Owns the roadmap"})
	assert.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, r.Len())

	h, ok := r.Get(id)
	assert.True(t, ok)
	assert.Equal(t, "Alex", h.Identity().Name)
}

func TestRegistry_Create_Validation(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	_, err := r.Create(core.AgentConfig{Role: "Product Manager", Description: "x"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Create_DuplicateID(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	cfg := core.AgentConfig{ID: "agent-1", Name: "Alex", Role: "Product Manager", Description: "x"}
	_, err := r.Create(cfg)
	assert.NoError(t, err)

	_, err = r.Create(cfg)
	assert.ErrorIs(t, err, core.ErrDuplicateID)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	id, err := r.Create(core.AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})
	assert.NoError(t, err)

	assert.True(t, r.Remove(id))
	assert.False(t, r.Remove(id))

	_, ok := r.Get(id)
	assert.False(t, ok)
}

func TestRegistry_ByRole(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	_, err := r.Create(core.AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})
	assert.NoError(t, err)
	_, err = r.Create(core.AgentConfig{Name: "Sarah", Role: "UX Designer", Description: "x"})
	assert.NoError(t, err)

	pms := r.ByRole("Product Manager")
	assert.Len(t, pms, 1)
	assert.Equal(t, "Alex", pms[0].Identity().Name)

	assert.Empty(t, r.ByRole("Data Scientist"))
}

func TestRegistry_Active(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	id1, _ := r.Create(core.AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})
	_, err := r.Create(core.AgentConfig{Name: "Sarah", Role: "UX Designer", Description: "x"})
	assert.NoError(t, err)

	h, _ := r.Get(id1)
	h.Activate()

	active := r.Active()
	assert.Len(t, active, 1)
	assert.Equal(t, id1, active[0].Identity().ID)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	_, err := r.Create(core.AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})
	assert.NoError(t, err)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.IDs())
}

func TestRegistry_DefaultsApplied(t *testing.T) {
	r := NewRegistry(responder.NewMock(), nil)

	id, err := r.Create(core.AgentConfig{Name: "Alex", Role: "Product Manager", Description: "x"})
	assert.NoError(t, err)

	h, _ := r.Get(id)
	// The default memory policy bounds history at 2*10 entries.
	assert.Equal(t, core.DefaultMemoryPolicy(), h.memory)
}
