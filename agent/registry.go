package agent

import (
	"fmt"
	"sync"

	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/logging"
)

// Registry owns the set of live agent handles for one session. No two
// handles may share an id. Reads may run concurrently; the session's
// single-writer discipline ensures register/unregister calls never
// interleave, but the registry still guards its map with an RWMutex so
// concurrent reads during a mutation are safe.
type Registry struct {
	responder core.Responder
	logger    logging.Logger

	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRegistry constructs an empty registry. All agents created through it
// share the given Responder.
func NewRegistry(responder core.Responder, logger logging.Logger) *Registry {
	return &Registry{
		responder: responder,
		logger:    logging.OrNoOp(logger),
		handles:   make(map[string]*Handle),
	}
}

// Create validates cfg, applies the default personality and memory policy
// where omitted, constructs the handle and stores it. It returns the agent
// id (generated when cfg carries none) or ErrDuplicateID / ErrValidation;
// on error no state is mutated.
func (r *Registry) Create(cfg core.AgentConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	personality := core.DefaultPersonality()
	if cfg.Personality != nil {
		personality = *cfg.Personality
	}
	memory := core.DefaultMemoryPolicy()
	if cfg.Memory != nil {
		memory = *cfg.Memory
	}

	identity := core.NewIdentity(cfg)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handles[identity.ID]; exists {
		return "", fmt.Errorf("%w: %s", core.ErrDuplicateID, identity.ID)
	}
	r.handles[identity.ID] = NewHandle(identity, personality, memory, cfg.KnowledgeBase, r.responder, r.logger)
	r.logger.Info("agent registered", "agent", identity.Name, "agent_id", identity.ID, "role", identity.Role)
	return identity.ID, nil
}

// Get returns the handle for id, or false when absent.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Remove deletes the handle for id, reporting whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return false
	}
	delete(r.handles, id)
	r.logger.Info("agent unregistered", "agent", h.Identity().Name, "agent_id", id)
	return true
}

// ByRole returns all handles whose role string matches role.
func (r *Registry) ByRole(role string) []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Handle
	for _, h := range r.handles {
		if h.Identity().Role == role {
			out = append(out, h)
		}
	}
	return out
}

// Active returns all currently active handles.
func (r *Registry) Active() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Handle
	for _, h := range r.handles {
		if h.IsActive() {
			out = append(out, h)
		}
	}
	return out
}

// All returns a snapshot of every registered handle.
func (r *Registry) All() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	return out
}

// IDs returns the ids of every registered handle.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handles))
	for id := range r.handles {
		out = append(out, id)
	}
	return out
}

// Len reports the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Clear releases all handles. Used at session end.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = make(map[string]*Handle)
	r.logger.Debug("registry cleared")
}
