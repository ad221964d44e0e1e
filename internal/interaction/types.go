package interaction

import (
	"errors"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/relationship"
)

// Validation and contention errors. Both are raised before any state
// is mutated.
var (
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrInteractionBusy     = errors.New("interaction busy")
)

// Kind enumerates the supported interaction types.
type Kind string

const (
	KindGreeting         Kind = "greeting"
	KindChat             Kind = "chat"
	KindDiscussion       Kind = "discussion"
	KindDebate           Kind = "debate"
	KindCollaboration    Kind = "collaboration"
	KindEmotionalSupport Kind = "emotional_support"
	KindConflict         Kind = "conflict"
)

// Kinds lists all interaction types.
var Kinds = []Kind{
	KindGreeting, KindChat, KindDiscussion, KindDebate,
	KindCollaboration, KindEmotionalSupport, KindConflict,
}

// Request describes one interaction submitted by the API layer.
type Request struct {
	InitiatorID string         `json:"initiator_id"`
	TargetID    string         `json:"target_id"`
	Kind        Kind           `json:"interaction_type"`
	Content     string         `json:"content"`
	Context     map[string]any `json:"context,omitempty"`
}

// Result is the outcome of one processed interaction. Success=false
// with a FailureReason is a normal, expected outcome (a feasibility
// failure), not an error.
type Result struct {
	ID              string                              `json:"id"`
	Success         bool                                `json:"success"`
	FailureReason   string                              `json:"failure_reason,omitempty"`
	ResponseText    string                              `json:"response_text,omitempty"`
	Sentiment       float64                             `json:"sentiment"`
	Relationship    *relationship.Delta                 `json:"relationship_delta,omitempty"`
	EmotionalStates map[string]character.EmotionalState `json:"emotional_states,omitempty"`
}
