// Package graph mirrors the relationship topology into Neo4j. The
// projection is a best-effort read model for topology queries; the
// Postgres ledger remains the source of truth, so sync failures are
// logged and never fail an interaction.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/relationship"
)

// Projector writes relationship state into Neo4j and answers
// topology queries.
type Projector struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewProjector connects to Neo4j and verifies the connection.
func NewProjector(uri, user, password string, logger *zap.Logger) (*Projector, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	logger.Info("Neo4j connected")
	return &Projector{driver: driver, logger: logger}, nil
}

// Sync upserts the relationship edge with its current scores. Best
// effort: the caller treats a lost projection as recoverable.
func (p *Projector) Sync(ctx context.Context, rel *relationship.Relationship) {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Character {id: $a, ecosystem: $eco})
		 MERGE (b:Character {id: $b, ecosystem: $eco})
		 MERGE (a)-[r:BONDED_WITH]-(b)
		 SET r.strength = $strength,
		     r.trust = $trust,
		     r.familiarity = $familiarity,
		     r.interaction_count = $count,
		     r.updated_at = datetime()`,
		map[string]interface{}{
			"a":           rel.CharA,
			"b":           rel.CharB,
			"eco":         rel.EcosystemID,
			"strength":    rel.Strength,
			"trust":       rel.Trust,
			"familiarity": rel.Familiarity,
			"count":       rel.InteractionCount,
		})
	if err != nil {
		p.logger.Warn("relationship projection failed",
			zap.String("pair", rel.CharA+"/"+rel.CharB),
			zap.Error(err))
	}
}

// Neighbor is one bonded character from a topology query.
type Neighbor struct {
	CharacterID string  `json:"character_id"`
	Strength    float64 `json:"strength"`
	Trust       float64 `json:"trust"`
}

// Neighbors returns all characters bonded with the given one, ordered
// by bond strength.
func (p *Projector) Neighbors(ctx context.Context, ecosystemID, characterID string) ([]*Neighbor, error) {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Character {id: $id, ecosystem: $eco})-[r:BONDED_WITH]-(b:Character)
		 RETURN b.id, r.strength, r.trust
		 ORDER BY r.strength DESC`,
		map[string]interface{}{"id": characterID, "eco": ecosystemID})
	if err != nil {
		return nil, fmt.Errorf("neighbors of %s: %w", characterID, err)
	}

	var neighbors []*Neighbor
	for result.Next(ctx) {
		rec := result.Record()
		id, _ := rec.Get("b.id")
		strength, _ := rec.Get("r.strength")
		trust, _ := rec.Get("r.trust")
		neighbors = append(neighbors, &Neighbor{
			CharacterID: id.(string),
			Strength:    strength.(float64),
			Trust:       trust.(float64),
		})
	}
	return neighbors, nil
}

// StrongestBonds returns the top-K strongest edges in an ecosystem.
func (p *Projector) StrongestBonds(ctx context.Context, ecosystemID string, limit int) ([]*relationship.Relationship, error) {
	if limit <= 0 {
		limit = 10
	}
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Character {ecosystem: $eco})-[r:BONDED_WITH]-(b:Character)
		 WHERE a.id < b.id
		 RETURN a.id, b.id, r.strength, r.trust, r.familiarity
		 ORDER BY r.strength DESC
		 LIMIT $limit`,
		map[string]interface{}{"eco": ecosystemID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("strongest bonds: %w", err)
	}

	var rels []*relationship.Relationship
	for result.Next(ctx) {
		rec := result.Record()
		a, _ := rec.Get("a.id")
		b, _ := rec.Get("b.id")
		strength, _ := rec.Get("r.strength")
		trust, _ := rec.Get("r.trust")
		familiarity, _ := rec.Get("r.familiarity")
		rels = append(rels, &relationship.Relationship{
			EcosystemID: ecosystemID,
			CharA:       a.(string),
			CharB:       b.(string),
			Strength:    strength.(float64),
			Trust:       trust.(float64),
			Familiarity: familiarity.(float64),
		})
	}
	return rels, nil
}

// Close tears down the driver.
func (p *Projector) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}
