package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/ensemble/internal/character"
)

// SaveCharacter upserts a character.
func (s *Postgres) SaveCharacter(ctx context.Context, c *character.Character) error {
	emotions, err := json.Marshal(c.Emotions)
	if err != nil {
		return fmt.Errorf("marshal emotions for %s: %w", c.ID, err)
	}
	now := time.Now()
	_, err = s.db.Exec(ctx, `
		INSERT INTO characters (id, ecosystem_id, name,
			openness, conscientiousness, extraversion, agreeableness, neuroticism,
			emotions, social_energy, interaction_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			openness = EXCLUDED.openness,
			conscientiousness = EXCLUDED.conscientiousness,
			extraversion = EXCLUDED.extraversion,
			agreeableness = EXCLUDED.agreeableness,
			neuroticism = EXCLUDED.neuroticism,
			emotions = EXCLUDED.emotions,
			social_energy = EXCLUDED.social_energy,
			interaction_count = EXCLUDED.interaction_count,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.EcosystemID, c.Name,
		c.Profile.Openness, c.Profile.Conscientiousness, c.Profile.Extraversion,
		c.Profile.Agreeableness, c.Profile.Neuroticism,
		emotions, c.SocialEnergy, c.InteractionCount, now,
	)
	if err != nil {
		return fmt.Errorf("save character %s: %w", c.ID, err)
	}
	return nil
}

// GetCharacter retrieves a single character by id.
func (s *Postgres) GetCharacter(ctx context.Context, id string) (*character.Character, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, ecosystem_id, name,
		       openness, conscientiousness, extraversion, agreeableness, neuroticism,
		       emotions, social_energy, interaction_count, created_at, updated_at
		FROM characters WHERE id = $1`, id)

	c, err := scanCharacter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character %s: %w", id, err)
	}
	return c, nil
}

// ListCharacters returns all characters in an ecosystem.
func (s *Postgres) ListCharacters(ctx context.Context, ecosystemID string) ([]*character.Character, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, ecosystem_id, name,
		       openness, conscientiousness, extraversion, agreeableness, neuroticism,
		       emotions, social_energy, interaction_count, created_at, updated_at
		FROM characters WHERE ecosystem_id = $1
		ORDER BY created_at`, ecosystemID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var chars []*character.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (*character.Character, error) {
	var c character.Character
	var emotions []byte
	err := row.Scan(
		&c.ID, &c.EcosystemID, &c.Name,
		&c.Profile.Openness, &c.Profile.Conscientiousness, &c.Profile.Extraversion,
		&c.Profile.Agreeableness, &c.Profile.Neuroticism,
		&emotions, &c.SocialEnergy, &c.InteractionCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Emotions = character.NewEmotionalState()
	if len(emotions) > 0 {
		if err := json.Unmarshal(emotions, &c.Emotions); err != nil {
			return nil, fmt.Errorf("unmarshal emotions: %w", err)
		}
	}
	return &c, nil
}
