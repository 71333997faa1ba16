package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RoleKind is the closed set of specialist roles Roundtable knows how to
// instruct. Unknown role strings resolve to RoleGeneric which carries only
// the shared capability set; there is no dynamic role dispatch.
type RoleKind int

const (
	// RoleGeneric is the fallback for roles outside the known set.
	RoleGeneric RoleKind = iota
	// RoleProductManager covers product and business questions.
	RoleProductManager
	// RoleUXDesigner covers design and user-experience questions.
	RoleUXDesigner
	// RoleSoftwareEngineer covers implementation questions.
	RoleSoftwareEngineer
	// RoleDataScientist covers data and analytics questions.
	RoleDataScientist
	// RoleQAEngineer covers quality and testing questions.
	RoleQAEngineer
	// RoleDevOpsEngineer covers infrastructure and delivery questions.
	RoleDevOpsEngineer
	// RoleBusinessAnalyst covers requirements and process questions.
	RoleBusinessAnalyst
)

// String returns the canonical role title.
func (r RoleKind) String() string {
	switch r {
	case RoleProductManager:
		return "Product Manager"
	case RoleUXDesigner:
		return "UX Designer"
	case RoleSoftwareEngineer:
		return "Software Engineer"
	case RoleDataScientist:
		return "Data Scientist"
	case RoleQAEngineer:
		return "QA Engineer"
	case RoleDevOpsEngineer:
		return "DevOps Engineer"
	case RoleBusinessAnalyst:
		return "Business Analyst"
	default:
		return "Specialist"
	}
}

// Capabilities returns the capability tags shared by all agents of this
// role kind. Generic agents carry only the shared set.
func (r RoleKind) Capabilities() []string {
	shared := []string{"conversation", "collaboration"}
	switch r {
	case RoleProductManager:
		return append(shared, "prioritization", "roadmap", "business-value")
	case RoleUXDesigner:
		return append(shared, "user-research", "interaction-design", "accessibility")
	case RoleSoftwareEngineer:
		return append(shared, "architecture", "implementation", "code-review")
	case RoleDataScientist:
		return append(shared, "analytics", "experimentation", "modeling")
	case RoleQAEngineer:
		return append(shared, "test-strategy", "quality", "regression")
	case RoleDevOpsEngineer:
		return append(shared, "deployment", "reliability", "observability")
	case RoleBusinessAnalyst:
		return append(shared, "requirements", "process", "stakeholders")
	default:
		return shared
	}
}

// RoleKindOf maps a free-form role string to its RoleKind. Matching is
// case-insensitive on the canonical titles; anything else is RoleGeneric.
func RoleKindOf(role string) RoleKind {
	for _, k := range []RoleKind{
		RoleProductManager, RoleUXDesigner, RoleSoftwareEngineer,
		RoleDataScientist, RoleQAEngineer, RoleDevOpsEngineer,
		RoleBusinessAnalyst,
	} {
		if strings.EqualFold(role, k.String()) {
			return k
		}
	}
	return RoleGeneric
}

// Personality tunes how a specialist phrases its replies.
type Personality struct {
	Tone      string `json:"tone" yaml:"tone"`
	Verbosity string `json:"verbosity" yaml:"verbosity"`
	Style     string `json:"style" yaml:"style"`
}

// DefaultPersonality is applied when an agent config omits personality.
func DefaultPersonality() Personality {
	return Personality{Tone: "Professional", Verbosity: "Concise", Style: "Direct"}
}

// MemoryPolicy bounds an agent's retained conversation history. When enabled
// the history never exceeds 2*HistoryLimit entries (one user plus one
// assistant turn per exchange); oldest entries are evicted first.
type MemoryPolicy struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	HistoryLimit int  `json:"historyLimit" yaml:"historyLimit"`
}

// DefaultMemoryPolicy is applied when an agent config omits memory settings.
func DefaultMemoryPolicy() MemoryPolicy {
	return MemoryPolicy{Enabled: true, HistoryLimit: 10}
}

// AgentConfig is the externally supplied description of a specialist.
// ID may be empty, in which case one is generated at create time.
type AgentConfig struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Role          string       `json:"role" yaml:"role"`
	Description   string       `json:"description" yaml:"description"`
	Voice         string       `json:"voice,omitempty" yaml:"voice,omitempty"`
	SpeechSpeed   string       `json:"speechSpeed,omitempty" yaml:"speechSpeed,omitempty"`
	Personality   *Personality `json:"personality,omitempty" yaml:"personality,omitempty"`
	Memory        *MemoryPolicy `json:"memory,omitempty" yaml:"memory,omitempty"`
	KnowledgeBase string       `json:"knowledgeBase,omitempty" yaml:"knowledgeBase,omitempty"`
}

// Validate checks required fields before any state mutation occurs.
func (c AgentConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: agent name is required", ErrValidation)
	}
	if strings.TrimSpace(c.Role) == "" {
		return fmt.Errorf("%w: agent role is required", ErrValidation)
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("%w: agent description is required", ErrValidation)
	}
	if c.Memory != nil && c.Memory.Enabled && c.Memory.HistoryLimit <= 0 {
		return fmt.Errorf("%w: historyLimit must be positive when memory is enabled", ErrValidation)
	}
	return nil
}

// Identity is the immutable identity of a live agent, created at agent-add
// time and destroyed with the agent. It is never mutated.
type Identity struct {
	ID           string
	Name         string
	Role         string
	Kind         RoleKind
	Description  string
	Voice        string
	SpeechSpeed  string
	Capabilities []string
}

// NewIdentity freezes a validated config into an Identity, generating an ID
// when the config carries none and resolving the role kind.
func NewIdentity(cfg AgentConfig) Identity {
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	kind := RoleKindOf(cfg.Role)
	return Identity{
		ID:           id,
		Name:         cfg.Name,
		Role:         cfg.Role,
		Kind:         kind,
		Description:  cfg.Description,
		Voice:        cfg.Voice,
		SpeechSpeed:  cfg.SpeechSpeed,
		Capabilities: kind.Capabilities(),
	}
}

// AgentSummary is the introspection snapshot of a live agent, surfaced by
// the router's get_status coordination action and the transport layer.
type AgentSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	IsActive          bool   `json:"is_active"`
	ConversationTurns int    `json:"conversation_turns"`
	Voice             string `json:"voice,omitempty"`
	SpeechSpeed       string `json:"speech_speed,omitempty"`
}
