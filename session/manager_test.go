package session

import (
	"context"
	"testing"
	"time"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/responder"
	"github.com/stretchr/testify/assert"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager(responder.NewMock())

	s, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get("client-1")
	assert.True(t, ok)
	assert.Equal(t, s.ID, got.ID)

	_, ok = m.Get("client-2")
	assert.False(t, ok)
}

func TestManager_Create_ReplacesExisting(t *testing.T) {
	m := NewManager(responder.NewMock())

	first, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)

	second, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.IsActive())
	assert.True(t, second.IsActive())
	assert.Equal(t, 1, m.Len())
}

func TestManager_Create_MaxAgents(t *testing.T) {
	m := NewManager(responder.NewMock(), func(o *Options) { o.MaxAgents = 1 })

	_, err := m.Create(context.Background(), "client-1", testAgents())
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 0, m.Len())
}

func TestManager_Create_InvalidAgentConfig(t *testing.T) {
	m := NewManager(responder.NewMock())

	_, err := m.Create(context.Background(), "client-1", []core.AgentConfig{
		{Name: "", Role: "Product Manager", Description: "x"},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 0, m.Len())
}

func TestManager_End(t *testing.T) {
	m := NewManager(responder.NewMock())

	s, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)

	summary, err := m.End(context.Background(), "client-1")
	assert.NoError(t, err)
	assert.Equal(t, s.ID, summary.SessionID)
	assert.Equal(t, 0, m.Len())

	// A second end has nothing to tear down.
	_, err = m.End(context.Background(), "client-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestManager_ActiveSessions(t *testing.T) {
	m := NewManager(responder.NewMock())

	s1, _ := m.Create(context.Background(), "client-1", testAgents())
	s2, _ := m.Create(context.Background(), "client-2", testAgents())

	active := m.ActiveSessions()
	assert.ElementsMatch(t, []string{s1.ID, s2.ID}, active)
}

func TestManager_CleanupInactive(t *testing.T) {
	m := NewManager(responder.NewMock())

	s1, _ := m.Create(context.Background(), "client-1", testAgents())
	_, err := m.Create(context.Background(), "client-2", testAgents())
	assert.NoError(t, err)

	// Tombstone client-1's session out of band; the reaper collects it.
	s1.End()

	removed := m.CleanupInactive(context.Background(), time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())

	_, ok := m.Get("client-1")
	assert.False(t, ok)
	_, ok = m.Get("client-2")
	assert.True(t, ok)
}

func TestManager_CleanupInactive_MaxAge(t *testing.T) {
	m := NewManager(responder.NewMock())

	_, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)

	// A zero max age makes every session stale.
	removed := m.CleanupInactive(context.Background(), 0)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, m.Len())
}

func TestManager_SnapshotLifecycle(t *testing.T) {
	store := NewMemoryStateStore()
	m := NewManager(responder.NewMock(), func(o *Options) { o.StateStore = store })

	s, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)

	snap, err := store.Load(context.Background(), "client-1")
	assert.NoError(t, err)
	assert.Equal(t, s.ID, snap.SessionID)
	assert.True(t, snap.IsActive)
	assert.Len(t, snap.AgentConfigs, 2)
	assert.NotEmpty(t, snap.AgentConfigs[0].ID)

	_, err = m.End(context.Background(), "client-1")
	assert.NoError(t, err)

	_, err = store.Load(context.Background(), "client-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestManager_SaveTurnSnapshot(t *testing.T) {
	store := NewMemoryStateStore()
	mock := responder.NewMock()
	mock.AddReply("Available agents:", "Noted.")
	m := NewManager(mock, func(o *Options) { o.StateStore = store })

	s, err := m.Create(context.Background(), "client-1", testAgents())
	assert.NoError(t, err)

	_, err = s.ProcessText(context.Background(), "hello")
	assert.NoError(t, err)
	m.SaveTurnSnapshot(context.Background(), s)

	snap, err := store.Load(context.Background(), "client-1")
	assert.NoError(t, err)
	assert.Len(t, snap.Transcript, 2)
}
