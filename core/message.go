package core

import "github.com/google/uuid"

// MessageType enumerates the typed messages the bus can deliver.
type MessageType string

const (
	// MessageRequest targets a specific agent, or falls back to the
	// dispatcher when the recipient is unresolvable.
	MessageRequest MessageType = "request"
	// MessageResponse carries an agent reply; terminal, logged only.
	MessageResponse MessageType = "response"
	// MessageBroadcast fans out to every agent except the sender.
	MessageBroadcast MessageType = "broadcast"
	// MessageCoordination carries internal control actions keyed by
	// metadata["action"].
	MessageCoordination MessageType = "coordination"
	// MessageAudio carries audio payloads for the dispatcher.
	MessageAudio MessageType = "audio"
	// MessageTranscript carries transcript updates; terminal, logged only.
	MessageTranscript MessageType = "transcript"
)

// Message is the bus envelope. It is immutable once constructed and
// consumed exactly once by the router's dispatch.
type Message struct {
	ID          string
	Type        MessageType
	SenderID    string
	RecipientID string // empty means broadcast / unresolved
	Content     string
	Metadata    map[string]string
}

// NewMessage constructs a message with a fresh id.
func NewMessage(t MessageType, senderID, recipientID, content string) Message {
	return Message{
		ID:          uuid.NewString(),
		Type:        t,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
}

// WithMetadata returns a copy of the message carrying the given metadata.
func (m Message) WithMetadata(md map[string]string) Message {
	m.Metadata = md
	return m
}

// BroadcastResponse is one agent's contribution to a broadcast aggregate.
type BroadcastResponse struct {
	AgentID  string `json:"agent_id"`
	Response string `json:"response"`
}
