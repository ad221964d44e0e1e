package character

import (
	"time"
)

// Character is a resident of an ecosystem: a persona extracted from a
// document or created by hand, with a personality, a mood, and a social
// energy budget that interactions draw down.
type Character struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	EcosystemID      string             `json:"ecosystem_id"`
	Profile          PersonalityProfile `json:"profile"`
	Emotions         EmotionalState     `json:"emotions"`
	SocialEnergy     float64            `json:"social_energy"` // 0-1
	InteractionCount int                `json:"interaction_count"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so callers can
// mutate freely without touching persisted state.
func (c *Character) Clone() *Character {
	cp := *c
	cp.Emotions = c.Emotions.Clone()
	return &cp
}
