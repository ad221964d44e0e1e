package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/ensemble/internal/relationship"
)

// SaveRelationship upserts a relationship ledger entry keyed by the
// canonical pair.
func (s *Postgres) SaveRelationship(ctx context.Context, rel *relationship.Relationship) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO relationships (ecosystem_id, char_a, char_b,
			strength, trust, familiarity, interaction_count, last_interaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ecosystem_id, char_a, char_b) DO UPDATE SET
			strength = EXCLUDED.strength,
			trust = EXCLUDED.trust,
			familiarity = EXCLUDED.familiarity,
			interaction_count = EXCLUDED.interaction_count,
			last_interaction = EXCLUDED.last_interaction`,
		rel.EcosystemID, rel.CharA, rel.CharB,
		rel.Strength, rel.Trust, rel.Familiarity,
		rel.InteractionCount, rel.LastInteraction,
	)
	if err != nil {
		return fmt.Errorf("save relationship %s/%s: %w", rel.CharA, rel.CharB, err)
	}
	return nil
}

// GetRelationship fetches the ledger entry for a pair, or nil when the
// pair has never interacted.
func (s *Postgres) GetRelationship(ctx context.Context, ecosystemID, a, b string) (*relationship.Relationship, error) {
	ca, cb := relationship.CanonicalPair(a, b)
	row := s.db.QueryRow(ctx, `
		SELECT ecosystem_id, char_a, char_b,
		       strength, trust, familiarity, interaction_count, last_interaction
		FROM relationships
		WHERE ecosystem_id = $1 AND char_a = $2 AND char_b = $3`,
		ecosystemID, ca, cb)

	var rel relationship.Relationship
	err := row.Scan(
		&rel.EcosystemID, &rel.CharA, &rel.CharB,
		&rel.Strength, &rel.Trust, &rel.Familiarity,
		&rel.InteractionCount, &rel.LastInteraction,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relationship %s/%s: %w", ca, cb, err)
	}
	return &rel, nil
}
