// Package bus implements the per-session message router: the bus delivering
// typed messages between the dispatcher, the live agents and the transport
// layer. The router owns the session's agent membership and mirrors every
// register/unregister into the dispatcher so the two views never diverge.
package bus

import (
	"context"
	"sync"

	"github.com/launchpadhq/roundtable/agent"
	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/dispatch"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/metrics"
)

// DispatcherRecipient addresses an audio message at the coordinator.
const DispatcherRecipient = "dispatcher"

// SystemSender identifies bus messages originating from the session itself.
const SystemSender = "system"

// Router delivers typed messages. Broadcast fan-out is the only place agent
// invocations run concurrently; recipients are independent by design.
// Membership mutations follow the session's single-writer discipline; the
// internal mutex only protects reads racing an in-flight mutation.
type Router struct {
	dispatcher *dispatch.Dispatcher
	logger     logging.Logger
	recorder   metrics.Recorder

	mu     sync.RWMutex
	agents map[string]*agent.Handle
}

// NewRouter constructs a router bound to its session's dispatcher.
func NewRouter(dispatcher *dispatch.Dispatcher, logger logging.Logger, recorder metrics.Recorder) *Router {
	return &Router{
		dispatcher: dispatcher,
		logger:     logging.OrNoOp(logger),
		recorder:   metrics.OrNop(recorder),
		agents:     make(map[string]*agent.Handle),
	}
}

// Register adds an agent to the bus and mirrors it into the dispatcher.
func (r *Router) Register(h *agent.Handle) {
	r.mu.Lock()
	r.agents[h.Identity().ID] = h
	r.mu.Unlock()
	r.dispatcher.Register(h)
	r.logger.Info("agent registered with router", "agent", h.Identity().Name, "agent_id", h.Identity().ID)
}

// Unregister removes an agent from the bus and the dispatcher.
func (r *Router) Unregister(id string) {
	r.mu.Lock()
	_, ok := r.agents[id]
	delete(r.agents, id)
	r.mu.Unlock()
	if ok {
		r.dispatcher.Unregister(id)
		r.logger.Info("agent unregistered from router", "agent_id", id)
	}
}

// Route dispatches a message by type. The result shape depends on the type:
// Request yields a Response message or a dispatch.Result, Broadcast a
// []core.BroadcastResponse, Coordination a status map; terminal types yield
// nil. An unknown type is logged and treated as a no-op.
func (r *Router) Route(ctx context.Context, msg core.Message) (any, error) {
	switch msg.Type {
	case core.MessageRequest:
		return r.handleRequest(ctx, msg)
	case core.MessageResponse:
		r.logger.Debug("response message", "sender_id", msg.SenderID, "content", truncate(msg.Content, 100))
		return nil, nil
	case core.MessageBroadcast:
		return r.handleBroadcast(ctx, msg), nil
	case core.MessageCoordination:
		return r.handleCoordination(msg), nil
	case core.MessageAudio:
		return r.handleAudio(ctx, msg)
	case core.MessageTranscript:
		r.logger.Debug("transcript update", "sender_id", msg.SenderID)
		return nil, nil
	default:
		r.logger.Warn("no handler for message type", "type", string(msg.Type))
		return nil, nil
	}
}

// handleRequest invokes the addressed agent directly, or falls through to
// the dispatcher when the recipient is unresolvable. The dispatcher
// fallback is the system's only entry point for un-targeted input.
func (r *Router) handleRequest(ctx context.Context, msg core.Message) (any, error) {
	if h, ok := r.handle(msg.RecipientID); ok {
		reply, err := h.ProcessMessage(ctx, msg.Content)
		if err != nil {
			return nil, err
		}
		return core.NewMessage(core.MessageResponse, msg.RecipientID, msg.SenderID, reply), nil
	}
	return r.dispatcher.ProcessInput(ctx, msg.Content), nil
}

// handleBroadcast invokes every registered agent except the sender
// concurrently. One agent's failure is logged and excluded from the
// aggregate; it does not fail the others.
func (r *Router) handleBroadcast(ctx context.Context, msg core.Message) []core.BroadcastResponse {
	r.mu.RLock()
	recipients := make([]*agent.Handle, 0, len(r.agents))
	for id, h := range r.agents {
		if id != msg.SenderID {
			recipients = append(recipients, h)
		}
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	results := make(chan core.BroadcastResponse, len(recipients))
	for _, h := range recipients {
		wg.Add(1)
		go func(h *agent.Handle) {
			defer wg.Done()
			reply, err := h.ProcessMessage(ctx, msg.Content)
			if err != nil {
				r.recorder.BroadcastFailure()
				r.logger.Error("broadcast delivery failed", "agent_id", h.Identity().ID, "error", err)
				return
			}
			results <- core.BroadcastResponse{AgentID: h.Identity().ID, Response: reply}
		}(h)
	}
	wg.Wait()
	close(results)

	responses := make([]core.BroadcastResponse, 0, len(recipients))
	for res := range results {
		responses = append(responses, res)
	}
	return responses
}

// handleCoordination executes internal control actions keyed by
// metadata["action"]. Unknown actions are a no-op success.
func (r *Router) handleCoordination(msg core.Message) map[string]any {
	action := msg.Metadata["action"]
	switch action {
	case "activate_agent":
		if h, ok := r.handle(msg.Metadata["agent_id"]); ok {
			h.Activate()
		}
	case "deactivate_agent":
		if h, ok := r.handle(msg.Metadata["agent_id"]); ok {
			h.Deactivate()
		}
	case "get_status":
		return map[string]any{"active_agents": r.ActiveAgents()}
	default:
		r.logger.Debug("unknown coordination action", "action", action)
	}
	return map[string]any{"status": "coordination_handled"}
}

// handleAudio forwards audio addressed to the coordinator into the
// dispatcher and drops everything else.
func (r *Router) handleAudio(ctx context.Context, msg core.Message) (any, error) {
	if msg.RecipientID == DispatcherRecipient {
		return r.dispatcher.ProcessInput(ctx, msg.Content), nil
	}
	if _, ok := r.handle(msg.RecipientID); !ok {
		r.logger.Debug("dropping audio with unresolvable recipient", "recipient_id", msg.RecipientID)
	}
	return nil, nil
}

// FacilitateCollaboration asks each listed agent for its perspective on
// topic, passing the other listed agents as peer context. Invocations are
// sequential; a failed agent is simply missing from the result map.
func (r *Router) FacilitateCollaboration(ctx context.Context, topic string, agentIDs []string) map[string]string {
	responses := make(map[string]string)
	for _, id := range agentIDs {
		h, ok := r.handle(id)
		if !ok {
			continue
		}
		var peers []string
		for _, otherID := range agentIDs {
			if otherID == id {
				continue
			}
			if other, ok := r.handle(otherID); ok {
				peers = append(peers, other.Identity().Name)
			}
		}
		reply, err := h.Collaborate(ctx, topic, peers)
		if err != nil {
			r.logger.Warn("collaboration turn failed", "agent_id", id, "error", err)
			continue
		}
		responses[id] = reply
	}
	return responses
}

// ActiveAgents returns the ids of currently active agents.
func (r *Router) ActiveAgents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for id, h := range r.agents {
		if h.IsActive() {
			out = append(out, id)
		}
	}
	return out
}

// AgentSummary returns the summary for one agent, or false when absent.
func (r *Router) AgentSummary(id string) (core.AgentSummary, bool) {
	h, ok := r.handle(id)
	if !ok {
		return core.AgentSummary{}, false
	}
	return h.Summary(), true
}

// BroadcastSystemMessage fans a system announcement out to every agent.
func (r *Router) BroadcastSystemMessage(ctx context.Context, text string) {
	msg := core.NewMessage(core.MessageBroadcast, SystemSender, "", text).
		WithMetadata(map[string]string{"system": "true"})
	r.handleBroadcast(ctx, msg)
}

func (r *Router) handle(id string) (*agent.Handle, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.agents[id]
	return h, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
