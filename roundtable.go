// Package roundtable provides a high-level façade over the conversation
// orchestration core (dispatcher, message bus, agent registry and session
// manager) enabling rapid construction of multi-agent conversation systems.
// Most applications interact with this package by:
//  1. Creating a Roundtable via New() (optionally overriding the responder,
//     logger, metrics recorder or state store)
//  2. Starting a session for a client with a set of agent configurations
//  3. Feeding user input through ProcessText and consuming the result
//
// The façade delegates orchestration to session.Manager while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a real responder
// backend, a durable state store and a structured logger.
package roundtable

import (
	"context"
	"time"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/dispatch"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/metrics"
	"github.com/launchpadhq/roundtable/responder"
	"github.com/launchpadhq/roundtable/session"
)

// Options configures the Roundtable instance.
type Options struct {
	// Responder backs every agent and the routing coordinator. Defaults to
	// the deterministic mock, which echoes prompts.
	Responder core.Responder

	// TurnTimeout bounds each collaborator call within a turn.
	TurnTimeout time.Duration

	// EventBufferSize sets the per-session outbound event channel buffer.
	EventBufferSize int

	// MaxAgentsPerSession caps the agent set per session; 0 means unlimited.
	MaxAgentsPerSession int

	// StateStore persists per-client session snapshots (defaults to an
	// in-memory implementation).
	StateStore session.StateStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Recorder (defaults to a no-op recorder if nil)
	Recorder metrics.Recorder
}

// Roundtable is the high-level façade aggregating the session manager and
// its collaborators.
type Roundtable struct {
	opts    Options
	manager *session.Manager
}

// New creates a new Roundtable instance with optional overrides. Any unset
// collaborator is initialized with an in-memory or no-op implementation.
func New(optFns ...func(o *Options)) *Roundtable {
	opts := Options{
		Responder:           responder.NewMock(),
		TurnTimeout:         60 * time.Second,
		EventBufferSize:     16,
		MaxAgentsPerSession: 10,
		StateStore:          session.NewMemoryStateStore(),
		Logger:              logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	m := session.NewManager(opts.Responder, func(o *session.Options) {
		o.TurnTimeout = opts.TurnTimeout
		o.EventBuffer = opts.EventBufferSize
		o.MaxAgents = opts.MaxAgentsPerSession
		o.StateStore = opts.StateStore
		o.Logger = opts.Logger
		o.Recorder = opts.Recorder
	})

	return &Roundtable{opts: opts, manager: m}
}

// Manager exposes the underlying session manager for transports that need
// direct access.
func (r *Roundtable) Manager() *session.Manager { return r.manager }

// StartSession creates a session for clientID with the given agents,
// replacing any live session for the same client.
func (r *Roundtable) StartSession(ctx context.Context, clientID string, agents []core.AgentConfig) (*session.Session, error) {
	return r.manager.Create(ctx, clientID, agents)
}

// ProcessText routes one user utterance through the client's session.
func (r *Roundtable) ProcessText(ctx context.Context, clientID, text string) (dispatch.Result, error) {
	s, ok := r.manager.Get(clientID)
	if !ok {
		return dispatch.Result{}, core.ErrNotFound
	}
	result, err := s.ProcessText(ctx, text)
	if err != nil {
		return dispatch.Result{}, err
	}
	r.manager.SaveTurnSnapshot(ctx, s)
	return result, nil
}

// EndSession tears down the client's session and returns its summary.
func (r *Roundtable) EndSession(ctx context.Context, clientID string) (session.Summary, error) {
	return r.manager.End(ctx, clientID)
}

// DefaultAgents returns the starter panel used by the demo server: a product
// manager and a UX designer ready to discuss product direction.
func DefaultAgents() []core.AgentConfig {
	return []core.AgentConfig{
		{
			Name:        "Alex",
			Role:        "Product Manager",
			Description: "A pragmatic product manager focused on scope, priorities and shipping.",
			Personality: &core.Personality{Tone: "Professional", Verbosity: "Concise", Style: "Direct"},
		},
		{
			Name:        "Sarah",
			Role:        "UX Designer",
			Description: "A user experience designer who advocates for the end user in every decision.",
			Personality: &core.Personality{Tone: "Warm", Verbosity: "Moderate", Style: "Inquisitive"},
		},
	}
}
