// Package transport exposes the orchestration core over a WebSocket
// endpoint. It owns framing only: every frame is translated into a session
// manager call, and session push events are forwarded to the client as
// asynchronous frames. A writer goroutine serializes all writes per
// connection.
package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/launchpadhq/roundtable/core"
	"github.com/launchpadhq/roundtable/logging"
	"github.com/launchpadhq/roundtable/session"
)

const writeTimeout = 10 * time.Second

// Handler upgrades HTTP requests to WebSocket conversations backed by the
// session manager.
type Handler struct {
	manager        *session.Manager
	logger         logging.Logger
	allowedOrigins []string
}

// NewHandler constructs a WebSocket handler. Empty allowedOrigins accepts
// every origin (development default, matching the reference deployment
// behind a trusted proxy).
func NewHandler(manager *session.Manager, logger logging.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		manager:        manager,
		logger:         logging.OrNoOp(logger),
		allowedOrigins: allowedOrigins,
	}
}

// inboundFrame is the decoded client frame. Fields are populated per type.
type inboundFrame struct {
	Type     string             `json:"type"`
	ClientID string             `json:"client_id,omitempty"`
	Agents   []core.AgentConfig `json:"agents,omitempty"`
	Audio    string             `json:"audio,omitempty"`
	Text     string             `json:"text,omitempty"`
	Agent    *core.AgentConfig  `json:"agent,omitempty"`
	AgentID  string             `json:"agent_id,omitempty"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(h.allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The first frame must carry the client id.
	var hello inboundFrame
	if err := conn.ReadJSON(&hello); err != nil {
		return
	}
	clientID := hello.ClientID
	if clientID == "" {
		clientID = "unknown"
	}
	logger := h.logger.With("client_id", clientID)
	logger.Info("client connected")

	out := make(chan any, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for payload := range out {
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}()

	send := func(payload any) {
		select {
		case out <- payload:
		case <-done:
		}
	}

	send(map[string]any{"type": "connection", "status": "connected", "client_id": clientID})

	h.readLoop(r.Context(), conn, clientID, send, logger)

	// Disconnect cleans up any live session for this client. The request
	// context may already be torn down, so cleanup uses a fresh one.
	if _, err := h.manager.End(context.Background(), clientID); err != nil && !errors.Is(err, core.ErrNotFound) {
		logger.Warn("session cleanup on disconnect failed", "error", err)
	}
	close(out)
	<-done
	logger.Info("client disconnected")
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, clientID string, send func(any), logger logging.Logger) {
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		logger.Debug("frame received", "type", frame.Type)

		switch frame.Type {
		case "session.start":
			s, err := h.manager.Create(ctx, clientID, frame.Agents)
			if err != nil {
				send(errorFrame(err))
				continue
			}
			go h.forwardEvents(s, send)
			send(map[string]any{"type": "session.started", "session_id": s.ID})

		case "session.audio", "session.text":
			s, ok := h.manager.Get(clientID)
			if !ok {
				logger.Warn("no active session for client")
				send(errorFrame(core.ErrNotFound))
				continue
			}
			process := s.ProcessAudio
			input := frame.Audio
			if frame.Type == "session.text" {
				process = s.ProcessText
				input = frame.Text
			}
			if input == "" {
				continue
			}
			result, err := process(ctx, input)
			if err != nil {
				send(errorFrame(err))
				continue
			}
			h.manager.SaveTurnSnapshot(ctx, s)
			reply := map[string]any{"type": "session.reply", "text": result.Text}
			if result.SpeakingAgent != "" {
				reply["speaking_agent"] = result.SpeakingAgent
			}
			if len(result.SpeakingAgents) > 0 {
				reply["speaking_agents"] = result.SpeakingAgents
			}
			send(reply)

		case "session.end":
			summary, err := h.manager.End(ctx, clientID)
			if err != nil {
				send(map[string]any{"type": "session.ended", "summary": map[string]any{"error": "Session not found"}})
				continue
			}
			send(map[string]any{"type": "session.ended", "summary": summary})

		case "agent.add":
			s, ok := h.manager.Get(clientID)
			if !ok || frame.Agent == nil {
				send(errorFrame(errors.New("no active session")))
				continue
			}
			id, err := s.AddAgent(ctx, *frame.Agent)
			if err != nil {
				send(errorFrame(err))
				continue
			}
			send(map[string]any{"type": "agent.added", "agent_id": id})

		case "agent.remove":
			s, ok := h.manager.Get(clientID)
			if !ok {
				send(errorFrame(errors.New("no active session")))
				continue
			}
			if err := s.RemoveAgent(ctx, frame.AgentID); err != nil {
				send(errorFrame(err))
				continue
			}
			send(map[string]any{"type": "agent.removed", "agent_id": frame.AgentID})

		case "ping":
			send(map[string]any{"type": "pong"})

		default:
			logger.Warn("unknown message type", "type", frame.Type)
			send(map[string]any{"type": "error", "error": "Unknown message type: " + frame.Type})
		}
	}
}

// forwardEvents pumps a session's push events into the connection until the
// session closes its channel.
func (h *Handler) forwardEvents(s *session.Session, send func(any)) {
	for ev := range s.Events() {
		switch ev.Type {
		case core.EventTranscriptUpdate:
			send(map[string]any{"type": string(ev.Type), "transcript": ev.Payload})
		case core.EventAgentSpeaking:
			send(map[string]any{"type": string(ev.Type), "agent_id": ev.Payload})
		default:
			send(map[string]any{"type": string(ev.Type), "payload": ev.Payload})
		}
	}
}

func errorFrame(err error) map[string]any {
	return map[string]any{"type": "error", "error": err.Error()}
}
