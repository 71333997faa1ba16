package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/launchpadhq/roundtable/core"
)

// Snapshot is the persisted per-client session state. This is the contract
// any store must satisfy: key = client id, value = the snapshot below.
type Snapshot struct {
	SessionID    string                 `json:"sessionId"`
	AgentConfigs []core.AgentConfig     `json:"agentConfigs"`
	CreatedAt    time.Time              `json:"createdAt"`
	IsActive     bool                   `json:"isActive"`
	Transcript   []core.TranscriptEntry `json:"transcript"`
}

// StateStore persists session snapshots keyed by client id.
type StateStore interface {
	Save(ctx context.Context, clientID string, snap Snapshot) error
	Load(ctx context.Context, clientID string) (Snapshot, error)
	Delete(ctx context.Context, clientID string) error
}

// MemoryStateStore is a volatile StateStore holding snapshots in a process
// local map. Safe for concurrent access; best suited for tests and
// ephemeral demo servers.
type MemoryStateStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStateStore constructs an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{snapshots: make(map[string]Snapshot)}
}

// Save implements StateStore.
func (s *MemoryStateStore) Save(_ context.Context, clientID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[clientID] = snap
	return nil
}

// Load implements StateStore.
func (s *MemoryStateStore) Load(_ context.Context, clientID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[clientID]
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot for client %s: %w", clientID, core.ErrNotFound)
	}
	return snap, nil
}

// Delete implements StateStore.
func (s *MemoryStateStore) Delete(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, clientID)
	return nil
}
