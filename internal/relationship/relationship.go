package relationship

import (
	"errors"
	"time"
)

// ErrUnknownRelationship indicates no ledger entry exists for a pair
// and lazy creation was not requested.
var ErrUnknownRelationship = errors.New("unknown relationship")

// Default values for a freshly created relationship. Strength starts
// neutral, trust starts at the benefit-of-the-doubt midpoint, and
// familiarity starts at zero.
const (
	DefaultStrength    = 0.0
	DefaultTrust       = 0.5
	DefaultFamiliarity = 0.0
)

// Relationship is the persistent bond between an unordered pair of
// characters. It is keyed by the canonical ordering of the two ids so a
// pair has exactly one ledger entry per ecosystem. Entries are never
// deleted; they are permanent history.
type Relationship struct {
	EcosystemID      string    `json:"ecosystem_id"`
	CharA            string    `json:"char_a"` // lexicographically smaller id
	CharB            string    `json:"char_b"`
	Strength         float64   `json:"strength"`    // -1..1
	Trust            float64   `json:"trust"`       // 0..1
	Familiarity      float64   `json:"familiarity"` // 0..1, monotonic
	InteractionCount int       `json:"interaction_count"`
	LastInteraction  time.Time `json:"last_interaction"`
}

// CanonicalPair orders two character ids deterministically.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// New creates a relationship with default values for the given pair.
func New(ecosystemID, a, b string) *Relationship {
	ca, cb := CanonicalPair(a, b)
	return &Relationship{
		EcosystemID: ecosystemID,
		CharA:       ca,
		CharB:       cb,
		Strength:    DefaultStrength,
		Trust:       DefaultTrust,
		Familiarity: DefaultFamiliarity,
	}
}

// Clone returns a copy of the relationship.
func (r *Relationship) Clone() *Relationship {
	cp := *r
	return &cp
}

// Involves reports whether the relationship is between the two ids.
func (r *Relationship) Involves(a, b string) bool {
	ca, cb := CanonicalPair(a, b)
	return r.CharA == ca && r.CharB == cb
}
