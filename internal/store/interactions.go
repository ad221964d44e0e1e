package store

import (
	"context"
	"fmt"

	"github.com/nidhogg/ensemble/internal/relationship"
)

// SaveInteraction appends one interaction record.
func (s *Postgres) SaveInteraction(ctx context.Context, rec *InteractionRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO interactions (id, ecosystem_id, initiator_id, target_id,
			kind, content, response, sentiment, strength_delta, trust_delta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.EcosystemID, rec.InitiatorID, rec.TargetID,
		rec.Kind, rec.Content, rec.Response, rec.Sentiment,
		rec.StrengthDelta, rec.TrustDelta, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save interaction %s: %w", rec.ID, err)
	}
	return nil
}

// RecentInteractions returns the newest records between a pair in
// either direction, most recent first.
func (s *Postgres) RecentInteractions(ctx context.Context, ecosystemID, a, b string, limit int) ([]*InteractionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	ca, cb := relationship.CanonicalPair(a, b)
	rows, err := s.db.Query(ctx, `
		SELECT id, ecosystem_id, initiator_id, target_id,
		       kind, content, response, sentiment, strength_delta, trust_delta, created_at
		FROM interactions
		WHERE ecosystem_id = $1
		  AND LEAST(initiator_id, target_id) = $2
		  AND GREATEST(initiator_id, target_id) = $3
		ORDER BY created_at DESC
		LIMIT $4`,
		ecosystemID, ca, cb, limit)
	if err != nil {
		return nil, fmt.Errorf("recent interactions %s/%s: %w", ca, cb, err)
	}
	defer rows.Close()

	var recs []*InteractionRecord
	for rows.Next() {
		var r InteractionRecord
		if err := rows.Scan(
			&r.ID, &r.EcosystemID, &r.InitiatorID, &r.TargetID,
			&r.Kind, &r.Content, &r.Response, &r.Sentiment,
			&r.StrengthDelta, &r.TrustDelta, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}
