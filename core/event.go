package core

// EventType enumerates the asynchronous push events a session can emit
// toward the transport layer.
type EventType string

const (
	// EventTranscriptUpdate carries the full transcript after a turn.
	EventTranscriptUpdate EventType = "transcript.update"
	// EventAgentSpeaking announces which agent is about to speak.
	EventAgentSpeaking EventType = "agent.speaking"
	// EventSessionEnded carries the final session summary.
	EventSessionEnded EventType = "session.ended"
)

// Event is one outbound push event. Sessions publish these on a per-session
// channel consumed by the transport layer, decoupling core logic from
// transport lifetime.
type Event struct {
	Type    EventType
	Payload any
}

// NewTranscriptUpdateEvent wraps a transcript snapshot.
func NewTranscriptUpdateEvent(transcript []TranscriptEntry) Event {
	return Event{Type: EventTranscriptUpdate, Payload: transcript}
}

// NewAgentSpeakingEvent announces the speaking agent by id.
func NewAgentSpeakingEvent(agentID string) Event {
	return Event{Type: EventAgentSpeaking, Payload: agentID}
}

// NewSessionEndedEvent wraps the session summary payload.
func NewSessionEndedEvent(summary any) Event {
	return Event{Type: EventSessionEnded, Payload: summary}
}
