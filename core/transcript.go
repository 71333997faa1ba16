package core

import "time"

// Turn is one exchange entry in an agent's or the dispatcher's working
// context.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn stamps a turn with the current UTC time.
func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// TranscriptEntry is one line of a session's shared transcript. The
// transcript is append-only; entries are never reordered or deleted.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	AgentName string    `json:"agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTranscriptEntry stamps an entry with the current UTC time.
func NewTranscriptEntry(role, content, agentName string) TranscriptEntry {
	return TranscriptEntry{
		Role:      role,
		Content:   content,
		AgentName: agentName,
		Timestamp: time.Now().UTC(),
	}
}
