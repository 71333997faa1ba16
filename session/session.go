// Package session owns the lifecycle of Roundtable conversations: the
// Session binding one client to its dispatcher, router, registry, transcript
// and outbound event channel, and the Manager owning the set of concurrent
// sessions keyed by client connection.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/launchpadhq/roundtable/agent"
	"github.com/launchpadhq/roundtable/bus"
	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/dispatch"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/metrics"
)

// Summary is returned when a session ends.
type Summary struct {
	SessionID       string                 `json:"session_id"`
	TotalTurns      int                    `json:"total_turns"`
	AgentsInvolved  []string               `json:"agents_involved"`
	DurationSeconds float64                `json:"duration"`
	Transcript      []core.TranscriptEntry `json:"transcript"`
}

// Session is one client's live multi-agent conversation. Turn processing is
// serialized by turnMu (single writer per session); stateMu guards the
// transcript and the active flag so End can tombstone the session while a
// turn is in flight, discarding that turn's result.
type Session struct {
	ID        string
	ClientID  string
	CreatedAt time.Time

	registry   *agent.Registry
	dispatcher *dispatch.Dispatcher
	router     *bus.Router
	logger     logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	turnTimeout time.Duration

	turnMu sync.Mutex

	stateMu      sync.Mutex
	transcript   []core.TranscriptEntry
	agentConfigs []core.AgentConfig
	isActive     bool
	ended        bool
	eventsClosed bool

	events chan core.Event
}

// newSession wires a fresh dispatcher+router+registry triple. Agents are
// registered by Start.
func newSession(clientID string, responder core.Responder, logger logging.Logger, recorder metrics.Recorder, turnTimeout time.Duration, eventBuffer int) *Session {
	id := uuid.NewString()
	logger = logging.OrNoOp(logger).With("session_id", id, "client_id", clientID)

	dispatcher := dispatch.New(responder, logger, recorder)
	router := bus.NewRouter(dispatcher, logger, recorder)
	registry := agent.NewRegistry(responder, logger)

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:          id,
		ClientID:    clientID,
		CreatedAt:   time.Now().UTC(),
		registry:    registry,
		dispatcher:  dispatcher,
		router:      router,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		turnTimeout: turnTimeout,
		isActive:    true,
		events:      make(chan core.Event, eventBuffer),
	}
}

// Start creates and registers the initial agent set. A validation failure
// aborts the start before any further agent is registered.
func (s *Session) Start(agentConfigs []core.AgentConfig) error {
	for _, cfg := range agentConfigs {
		if _, err := s.addAgentLocked(context.Background(), cfg, false); err != nil {
			return err
		}
	}
	s.logger.Info("session started", "agents", len(agentConfigs))
	return nil
}

// Events returns the outbound push event channel consumed by the transport
// layer. It is closed when the session ends.
func (s *Session) Events() <-chan core.Event { return s.events }

// Router exposes the session's message bus.
func (s *Session) Router() *bus.Router { return s.router }

// Registry exposes the session's agent registry.
func (s *Session) Registry() *agent.Registry { return s.registry }

// IsActive reports whether the session has not been tombstoned.
func (s *Session) IsActive() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.isActive
}

// Transcript returns a copy of the shared transcript.
func (s *Session) Transcript() []core.TranscriptEntry {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	out := make([]core.TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// ProcessText routes one user utterance through the dispatcher, appends
// both sides to the transcript and pushes transcript.update / agent.speaking
// events. A session-end racing this call tombstones the session first; the
// in-flight result is then discarded and ErrSessionEnded returned.
func (s *Session) ProcessText(ctx context.Context, text string) (dispatch.Result, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.stateMu.Lock()
	if !s.isActive {
		s.stateMu.Unlock()
		return dispatch.Result{}, fmt.Errorf("session %s: %w", s.ID, core.ErrSessionEnded)
	}
	s.transcript = append(s.transcript, core.NewTranscriptEntry("user", text, ""))
	s.stateMu.Unlock()

	callCtx, cancel := s.turnContext(ctx)
	defer cancel()
	result := s.dispatcher.ProcessInput(callCtx, text)

	s.stateMu.Lock()
	if !s.isActive {
		// Tombstoned while the collaborator call was in flight.
		s.stateMu.Unlock()
		return dispatch.Result{}, fmt.Errorf("session %s: %w", s.ID, core.ErrSessionEnded)
	}
	s.transcript = append(s.transcript, core.NewTranscriptEntry("assistant", result.Text, result.SpeakingAgent))
	snapshot := make([]core.TranscriptEntry, len(s.transcript))
	copy(snapshot, s.transcript)
	s.stateMu.Unlock()

	s.pushEvent(core.NewTranscriptUpdateEvent(snapshot))
	if result.AgentID != "" {
		s.pushEvent(core.NewAgentSpeakingEvent(result.AgentID))
	}
	return result, nil
}

// ProcessAudio forwards audio input to the text path; transcription happens
// outside the core.
func (s *Session) ProcessAudio(ctx context.Context, audio string) (dispatch.Result, error) {
	return s.ProcessText(ctx, audio)
}

// turnContext bounds one dispatcher turn by the session lifetime and the
// configured per-turn deadline, whichever fires first.
func (s *Session) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	var callCtx context.Context
	var cancel context.CancelFunc
	if s.turnTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.turnTimeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	stop := context.AfterFunc(s.ctx, cancel)
	return callCtx, func() { stop(); cancel() }
}

// AddAgent creates and registers a new agent mid-session and announces the
// arrival to the conversation.
func (s *Session) AddAgent(ctx context.Context, cfg core.AgentConfig) (string, error) {
	return s.addAgentLocked(ctx, cfg, true)
}

func (s *Session) addAgentLocked(ctx context.Context, cfg core.AgentConfig, announce bool) (string, error) {
	s.stateMu.Lock()
	if !s.isActive {
		s.stateMu.Unlock()
		return "", fmt.Errorf("session %s: %w", s.ID, core.ErrSessionEnded)
	}
	s.stateMu.Unlock()

	id, err := s.registry.Create(cfg)
	if err != nil {
		return "", err
	}
	h, _ := s.registry.Get(id)
	s.router.Register(h)

	s.stateMu.Lock()
	cfg.ID = id
	s.agentConfigs = append(s.agentConfigs, cfg)
	s.stateMu.Unlock()

	if announce {
		s.router.BroadcastSystemMessage(ctx, fmt.Sprintf("%s has joined the conversation.", h.Identity().Name))
	}
	return id, nil
}

// RemoveAgent unregisters an agent from the router and the registry and
// announces the departure.
func (s *Session) RemoveAgent(ctx context.Context, agentID string) error {
	h, ok := s.registry.Get(agentID)
	if !ok {
		return fmt.Errorf("agent %s: %w", agentID, core.ErrNotFound)
	}
	name := h.Identity().Name

	s.router.Unregister(agentID)
	s.registry.Remove(agentID)

	s.stateMu.Lock()
	kept := s.agentConfigs[:0]
	for _, cfg := range s.agentConfigs {
		if cfg.ID != agentID {
			kept = append(kept, cfg)
		}
	}
	s.agentConfigs = kept
	s.stateMu.Unlock()

	s.router.BroadcastSystemMessage(ctx, fmt.Sprintf("%s has left the conversation.", name))
	return nil
}

// End tombstones the session, cancels any in-flight routing, drains the
// dispatcher summary, clears the registry and closes the event channel.
// It is idempotent; only the first call produces a populated summary.
func (s *Session) End() Summary {
	s.stateMu.Lock()
	if s.ended {
		s.stateMu.Unlock()
		return Summary{}
	}
	s.isActive = false
	s.ended = true
	transcript := make([]core.TranscriptEntry, len(s.transcript))
	copy(transcript, s.transcript)
	s.stateMu.Unlock()

	// Cancel before teardown so in-flight collaborator calls abort.
	s.cancel()

	dsum := s.dispatcher.EndSession()
	summary := Summary{
		SessionID:       s.ID,
		TotalTurns:      dsum.TotalTurns,
		AgentsInvolved:  dsum.AgentsInvolved,
		DurationSeconds: time.Since(s.CreatedAt).Seconds(),
		Transcript:      transcript,
	}

	s.registry.Clear()

	s.pushClosed()
	s.logger.Info("session ended", "turns", summary.TotalTurns)
	return summary
}

// pushEvent delivers an event to the transport without blocking the turn;
// a full channel drops the event.
func (s *Session) pushEvent(ev core.Event) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("event channel full, dropping event", "event_type", string(ev.Type))
	}
}

// pushClosed emits the terminal close under stateMu so it cannot race a
// concurrent pushEvent send.
func (s *Session) pushClosed() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if !s.eventsClosed {
		s.eventsClosed = true
		close(s.events)
	}
}
