package store

import (
	"context"
	"errors"
	"time"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/relationship"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("not found")

// InteractionRecord is the persisted trace of one processed
// interaction, kept for the bounded conversation window and for
// downstream consumers.
type InteractionRecord struct {
	ID            string    `json:"id"`
	EcosystemID   string    `json:"ecosystem_id"`
	InitiatorID   string    `json:"initiator_id"`
	TargetID      string    `json:"target_id"`
	Kind          string    `json:"kind"`
	Content       string    `json:"content"`
	Response      string    `json:"response"`
	Sentiment     float64   `json:"sentiment"`
	StrengthDelta float64   `json:"strength_delta"`
	TrustDelta    float64   `json:"trust_delta"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the character/relationship persistence boundary. Reads are
// assumed strongly consistent with prior writes within one process
// call. Implementations hand out copies; callers mutate returned
// records freely and persist changes explicitly via Save*.
type Store interface {
	GetCharacter(ctx context.Context, id string) (*character.Character, error)
	SaveCharacter(ctx context.Context, c *character.Character) error
	ListCharacters(ctx context.Context, ecosystemID string) ([]*character.Character, error)

	// GetRelationship returns nil (no error) when the pair has no
	// ledger entry yet; lazy creation is the caller's decision.
	GetRelationship(ctx context.Context, ecosystemID, a, b string) (*relationship.Relationship, error)
	SaveRelationship(ctx context.Context, rel *relationship.Relationship) error

	SaveInteraction(ctx context.Context, rec *InteractionRecord) error
	// RecentInteractions returns the newest records between a pair,
	// most recent first, bounded by limit.
	RecentInteractions(ctx context.Context, ecosystemID, a, b string, limit int) ([]*InteractionRecord, error)
}
