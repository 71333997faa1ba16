// Package dispatch implements the routing policy of a Roundtable session.
// The Dispatcher decides which specialist agent(s) answer a given user
// input, executes the decision (sequentially for multi-agent turns so later
// speakers can react to earlier positions) and synthesizes coordination
// text. Routing itself is stateless per call; the cumulative conversation
// context and current speaker persist across calls.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/launchpadhq/roundtable/agent"
	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/metrics"
)

const (
	// CoordinatorName is the speaking name used for replies the dispatcher
	// produces itself (general conversation, clarifications, fallbacks).
	CoordinatorName = "Session Coordinator"

	// contextWindow caps the turns included in the routing prompt. The full
	// context is retained unbounded for audit use.
	contextWindow = 10

	// fallbackReply is the user-safe reply when the routing itself fails.
	fallbackReply = "I'm having trouble processing that request."

	// clarificationReply is returned for a Clarification decision.
	clarificationReply = "I need more information to route your request properly."
)

// coordinatorInstruction is the system instruction for the routing prompt.
const coordinatorInstruction = `You are the Session Coordinator, responsible for managing multi-agent conversations.

YOUR ROLE:
1. Listen to user input and determine which specialist agent(s) should respond
2. Route questions to the most appropriate agent based on their expertise
3. Facilitate natural conversation flow between agents
4. Synthesize responses when multiple agents need to contribute

ROUTING GUIDELINES:
- For design questions, route to the UX specialist
- For product or business questions, route to the Product Manager
- For general discussion, facilitate the group conversation yourself
- When unclear, ask for clarification

IMPORTANT:
- You are NOT answering specialist questions directly
- Announce who will be speaking next by name
- Be brief in your coordination`

// Result is the outcome of one ProcessInput call. The end user always
// receives Text, possibly an apologetic fallback; Err is set only when the
// routing decision itself failed.
type Result struct {
	Text           string
	SpeakingAgent  string
	SpeakingAgents []string
	AgentID        string
	Coordination   string
	Err            error
}

// Summary is returned by EndSession.
type Summary struct {
	TotalTurns     int      `json:"total_turns"`
	AgentsInvolved []string `json:"agents_involved"`
}

// Dispatcher routes user input to specialist agents. Register/Unregister
// are driven by the Router so both membership views stay in sync; within a
// session they are never called concurrently (single-writer discipline),
// but a mutex still protects the mirror against concurrent reads.
type Dispatcher struct {
	responder core.Responder
	logger    logging.Logger
	recorder  metrics.Recorder

	mu             sync.Mutex
	agents         map[string]*agent.Handle
	order          []string // registration order, for stable prompt enumeration
	context        []core.Turn
	currentSpeaker string
	ended          bool
}

// New constructs a dispatcher using responder for routing decisions.
func New(responder core.Responder, logger logging.Logger, recorder metrics.Recorder) *Dispatcher {
	return &Dispatcher{
		responder: responder,
		logger:    logging.OrNoOp(logger),
		recorder:  metrics.OrNop(recorder),
		agents:    make(map[string]*agent.Handle),
	}
}

// Register mirrors an agent into the dispatcher's membership view.
func (d *Dispatcher) Register(h *agent.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := h.Identity().ID
	if _, exists := d.agents[id]; !exists {
		d.order = append(d.order, id)
	}
	d.agents[id] = h
	d.ended = false
	d.logger.Debug("dispatcher registered agent", "agent_id", id, "agent", h.Identity().Name)
}

// Unregister removes an agent from the membership view.
func (d *Dispatcher) Unregister(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.agents[id]; !exists {
		return
	}
	delete(d.agents, id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	d.logger.Debug("dispatcher unregistered agent", "agent_id", id)
}

// CurrentSpeaker returns the id of the agent that spoke last, if any.
func (d *Dispatcher) CurrentSpeaker() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentSpeaker
}

// Context returns a copy of the cumulative conversation context.
func (d *Dispatcher) Context() []core.Turn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]core.Turn, len(d.context))
	copy(out, d.context)
	return out
}

// ProcessInput routes one user utterance. Any collaborator error during the
// routing decision is caught and surfaced as a Result with Err set and a
// user-safe fallback text; an individual agent's failure during a multi-
// agent turn never aborts the turn.
func (d *Dispatcher) ProcessInput(ctx context.Context, userText string) Result {
	d.mu.Lock()
	d.context = append(d.context, core.NewTurn("user", userText))
	d.ended = false
	d.mu.Unlock()

	decision, err := d.routingDecision(ctx, userText)
	if err != nil {
		d.logger.Error("routing decision failed", "error", err)
		result := Result{Text: fallbackReply, Err: err}
		d.appendReply(result.Text)
		return result
	}
	d.recorder.RoutingDecision(decision.Kind.String())

	result := d.execute(ctx, decision, userText)
	d.appendReply(result.Text)
	return result
}

func (d *Dispatcher) appendReply(text string) {
	d.mu.Lock()
	d.context = append(d.context, core.NewTurn("assistant", text))
	d.mu.Unlock()
}

// routingDecision builds the routing prompt, submits it to the Responder
// and parses the free-form reply into a RoutingDecision.
func (d *Dispatcher) routingDecision(ctx context.Context, userText string) (core.RoutingDecision, error) {
	d.mu.Lock()
	handles := make([]*agent.Handle, 0, len(d.order))
	for _, id := range d.order {
		handles = append(handles, d.agents[id])
	}
	window := d.context
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}
	history := make([]core.Turn, len(window))
	copy(history, window)
	d.mu.Unlock()

	prompt := buildRoutingPrompt(userText, handles)

	start := time.Now()
	reply, err := d.responder.Generate(ctx, coordinatorInstruction, prompt, history)
	if err != nil {
		d.recorder.ObserveCollaborator("error", time.Since(start))
		return core.RoutingDecision{}, core.NewCollaboratorError(CoordinatorName, err)
	}
	d.recorder.ObserveCollaborator("ok", time.Since(start))

	return d.parseDecision(reply, handles), nil
}

// buildRoutingPrompt enumerates each registered agent's name, role and
// description for the coordinator.
func buildRoutingPrompt(userText string, handles []*agent.Handle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User said: %q\n\nAvailable agents:\n", userText)
	for _, h := range handles {
		id := h.Identity()
		fmt.Fprintf(&b, "- %s (%s): %s\n", id.Name, id.Role, id.Description)
	}
	b.WriteString("\nDetermine which agent(s) should respond to this input.\n")
	b.WriteString("If multiple agents should collaborate, list them in order of who should speak.\n")
	b.WriteString("Respond with your routing decision and brief coordination message.")
	return b.String()
}

// parseDecision scans the coordinator's free-form reply for registered
// agent names (case-insensitive substring match). No match means General;
// one match Single; several Multiple, ordered by first mention.
func (d *Dispatcher) parseDecision(reply string, handles []*agent.Handle) core.RoutingDecision {
	lower := strings.ToLower(reply)

	type mention struct {
		id  string
		pos int
	}
	var mentions []mention
	for _, h := range handles {
		id := h.Identity()
		if pos := strings.Index(lower, strings.ToLower(id.Name)); pos >= 0 {
			mentions = append(mentions, mention{id: id.ID, pos: pos})
		}
	}
	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].pos < mentions[j].pos })

	targets := make([]string, 0, len(mentions))
	for _, m := range mentions {
		targets = append(targets, m.id)
	}

	kind := core.RoutingGeneral
	switch len(targets) {
	case 0:
	case 1:
		kind = core.RoutingSingle
	default:
		kind = core.RoutingMultiple
	}

	return core.RoutingDecision{Kind: kind, TargetAgentIDs: targets, CoordinationText: reply}
}

// execute carries out the routing decision. Multi-agent turns run strictly
// sequentially in speaking order; a failed agent is omitted from the
// combined reply and noted, never aborting the turn.
func (d *Dispatcher) execute(ctx context.Context, decision core.RoutingDecision, userText string) Result {
	switch decision.Kind {
	case core.RoutingGeneral:
		return Result{
			Text:          decision.CoordinationText,
			SpeakingAgent: CoordinatorName,
			Coordination:  decision.CoordinationText,
		}

	case core.RoutingClarification:
		return Result{
			Text:          clarificationReply,
			SpeakingAgent: CoordinatorName,
			Coordination:  decision.CoordinationText,
		}

	case core.RoutingSingle:
		id := decision.TargetAgentIDs[0]
		h, ok := d.handle(id)
		if !ok {
			return Result{Text: fallbackReply, Err: fmt.Errorf("routing target: %w", core.ErrNotFound)}
		}
		reply, err := d.invoke(ctx, h, userText)
		if err != nil {
			d.logger.Warn("agent turn failed", "agent_id", id, "error", err)
			return Result{Text: fallbackReply, Coordination: decision.CoordinationText, Err: err}
		}
		d.mu.Lock()
		d.currentSpeaker = id
		d.mu.Unlock()
		return Result{
			Text:          reply,
			SpeakingAgent: h.Identity().Name,
			AgentID:       id,
			Coordination:  decision.CoordinationText,
		}

	default: // RoutingMultiple
		var blocks []string
		var speakers []string
		for _, id := range decision.TargetAgentIDs {
			h, ok := d.handle(id)
			if !ok {
				d.logger.Warn("routing target vanished", "agent_id", id)
				continue
			}
			reply, err := d.invoke(ctx, h, userText)
			if err != nil {
				d.logger.Warn("agent omitted from multi-agent turn", "agent_id", id, "error", err)
				continue
			}
			blocks = append(blocks, fmt.Sprintf("[%s]: %s", h.Identity().Name, reply))
			speakers = append(speakers, h.Identity().Name)
		}
		if len(blocks) == 0 {
			return Result{Text: fallbackReply, Coordination: decision.CoordinationText}
		}
		if len(speakers) > 0 {
			last := decision.TargetAgentIDs[len(decision.TargetAgentIDs)-1]
			d.mu.Lock()
			d.currentSpeaker = last
			d.mu.Unlock()
		}
		return Result{
			Text:           strings.Join(blocks, "\n\n"),
			SpeakingAgents: speakers,
			Coordination:   decision.CoordinationText,
		}
	}
}

func (d *Dispatcher) handle(id string) (*agent.Handle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.agents[id]
	return h, ok
}

func (d *Dispatcher) invoke(ctx context.Context, h *agent.Handle, userText string) (string, error) {
	start := time.Now()
	reply, err := h.ProcessMessage(ctx, userText)
	if err != nil {
		d.recorder.ObserveCollaborator("error", time.Since(start))
		return "", err
	}
	d.recorder.ObserveCollaborator("ok", time.Since(start))
	return reply, nil
}

// EndSession resets the conversation context and current speaker and resets
// every registered agent's history, returning the session summary. It is
// idempotent: a second call yields an empty summary.
func (d *Dispatcher) EndSession() Summary {
	d.mu.Lock()
	if d.ended {
		d.mu.Unlock()
		return Summary{}
	}
	summary := Summary{TotalTurns: len(d.context)}
	for _, id := range d.order {
		summary.AgentsInvolved = append(summary.AgentsInvolved, id)
	}
	handles := make([]*agent.Handle, 0, len(d.agents))
	for _, h := range d.agents {
		handles = append(handles, h)
	}
	d.context = nil
	d.currentSpeaker = ""
	d.ended = true
	d.mu.Unlock()

	for _, h := range handles {
		h.Reset()
	}
	return summary
}
