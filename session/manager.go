package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/metrics"
)

// Options configure a Manager.
type Options struct {
	// TurnTimeout bounds each collaborator call; a timed-out call is
	// treated like any other collaborator error.
	TurnTimeout time.Duration
	// EventBuffer sizes each session's outbound event channel.
	EventBuffer int
	// MaxAgents caps the agent set per session; 0 means unlimited.
	MaxAgents int
	// StateStore persists per-client session snapshots. Optional;
	// persistence failures are logged, never fatal.
	StateStore StateStore
	// Logger defaults to NoOp.
	Logger logging.Logger
	// Recorder defaults to Nop.
	Recorder metrics.Recorder
}

// DefaultOptions are safe for development and tests.
func DefaultOptions() Options {
	return Options{
		TurnTimeout: 60 * time.Second,
		EventBuffer: 16,
		MaxAgents:   10,
	}
}

// Manager owns the process-wide set of concurrent sessions keyed by client
// id. It is the only cross-session shared mutable state; its map is guarded
// by a single mutex serializing create/end/cleanup for each client.
type Manager struct {
	responder core.Responder
	opts      Options
	logger    logging.Logger
	recorder  metrics.Recorder

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a Manager creating all sessions against responder.
func NewManager(responder core.Responder, optFns ...func(o *Options)) *Manager {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		responder: responder,
		opts:      opts,
		logger:    logging.OrNoOp(opts.Logger),
		recorder:  metrics.OrNop(opts.Recorder),
		sessions:  make(map[string]*Session),
	}
}

// Create allocates a fresh dispatcher+router+registry triple for clientID
// and registers the given agents. A client has at most one live session:
// an existing session for the same client is ended first.
func (m *Manager) Create(ctx context.Context, clientID string, agentConfigs []core.AgentConfig) (*Session, error) {
	if m.opts.MaxAgents > 0 && len(agentConfigs) > m.opts.MaxAgents {
		return nil, fmt.Errorf("%w: at most %d agents per session", core.ErrValidation, m.opts.MaxAgents)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.sessions[clientID]; ok {
		delete(m.sessions, clientID)
		prev.End()
		m.recorder.SessionEnded()
		m.logger.Info("replaced existing session", "client_id", clientID, "session_id", prev.ID)
	}

	s := newSession(clientID, m.responder, m.logger, m.recorder, m.opts.TurnTimeout, m.opts.EventBuffer)
	if err := s.Start(agentConfigs); err != nil {
		s.End()
		return nil, err
	}

	m.sessions[clientID] = s
	m.recorder.SessionStarted()
	m.saveSnapshot(ctx, s)
	m.logger.Info("session created", "client_id", clientID, "session_id", s.ID)
	return s, nil
}

// Get returns the live session for clientID, or false when absent.
func (m *Manager) Get(clientID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[clientID]
	return s, ok
}

// End tears down the session for clientID and removes it from the map. The
// entry is removed even when teardown misbehaves; ending an absent client
// returns ErrNotFound rather than failing hard.
func (m *Manager) End(ctx context.Context, clientID string) (Summary, error) {
	m.mu.Lock()
	s, ok := m.sessions[clientID]
	if ok {
		delete(m.sessions, clientID)
	}
	m.mu.Unlock()

	if !ok {
		return Summary{}, fmt.Errorf("session for client %s: %w", clientID, core.ErrNotFound)
	}

	summary := s.End()
	m.recorder.SessionEnded()
	m.deleteSnapshot(ctx, clientID)
	return summary, nil
}

// ActiveSessions returns the session ids of all live sessions.
func (m *Manager) ActiveSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sessions {
		if s.IsActive() {
			out = append(out, s.ID)
		}
	}
	return out
}

// Len reports the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupInactive ends every session that is inactive or older than maxAge.
// Designed to run periodically, independent of per-request traffic.
func (m *Manager) CleanupInactive(ctx context.Context, maxAge time.Duration) int {
	now := time.Now().UTC()

	m.mu.Lock()
	var stale []string
	for clientID, s := range m.sessions {
		if !s.IsActive() || now.Sub(s.CreatedAt) > maxAge {
			stale = append(stale, clientID)
		}
	}
	m.mu.Unlock()

	for _, clientID := range stale {
		if _, err := m.End(ctx, clientID); err == nil {
			m.logger.Info("cleaned up session", "client_id", clientID)
		}
	}
	return len(stale)
}

// SaveTurnSnapshot persists the post-turn session state. Best effort.
func (m *Manager) SaveTurnSnapshot(ctx context.Context, s *Session) {
	m.saveSnapshot(ctx, s)
}

func (m *Manager) saveSnapshot(ctx context.Context, s *Session) {
	if m.opts.StateStore == nil {
		return
	}
	snap := Snapshot{
		SessionID:  s.ID,
		CreatedAt:  s.CreatedAt,
		IsActive:   s.IsActive(),
		Transcript: s.Transcript(),
	}
	s.stateMu.Lock()
	snap.AgentConfigs = append([]core.AgentConfig(nil), s.agentConfigs...)
	s.stateMu.Unlock()

	if err := m.opts.StateStore.Save(ctx, s.ClientID, snap); err != nil {
		m.logger.Warn("snapshot save failed", "client_id", s.ClientID, "error", err)
	}
}

func (m *Manager) deleteSnapshot(ctx context.Context, clientID string) {
	if m.opts.StateStore == nil {
		return
	}
	if err := m.opts.StateStore.Delete(ctx, clientID); err != nil {
		m.logger.Warn("snapshot delete failed", "client_id", clientID, "error", err)
	}
}
