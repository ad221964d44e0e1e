package e2e

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/graph"
	"github.com/nidhogg/ensemble/internal/notify"
	"github.com/nidhogg/ensemble/internal/store"
)

// Suppress unused import warning for testcontainers base package.
var _ = testcontainers.GenericContainerRequest{}

// Package-level shared state — set by TestMain, used by all subtests.
var (
	testLogger    *zap.Logger
	testStore     *store.Postgres
	testProjector *graph.Projector
	testRedisURL  string
)

// startPostgres starts a PostgreSQL testcontainer, returns DSN + cleanup func.
func startPostgres(ctx context.Context) (string, func(), error) {
	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("ensemble_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("pg connection string: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return dsn, cleanup, nil
}

// startRedis starts a Redis testcontainer, returns URL + cleanup func.
func startRedis(ctx context.Context) (string, func(), error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return "", nil, fmt.Errorf("start redis: %w", err)
	}
	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("redis endpoint: %w", err)
	}
	url := "redis://" + endpoint
	cleanup := func() { container.Terminate(ctx) }
	return url, cleanup, nil
}

// startNeo4j starts a Neo4j testcontainer, returns URI + cleanup func.
func startNeo4j(ctx context.Context) (string, func(), error) {
	container, err := tcneo4j.Run(ctx, "neo4j:5-community",
		tcneo4j.WithoutAuthentication(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start neo4j: %w", err)
	}
	uri, err := container.BoltUrl(ctx)
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("neo4j bolt url: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return uri, cleanup, nil
}

// newCharacter builds a persisted-ready character with full energy.
func newCharacter(id, name, ecosystemID string, profile character.PersonalityProfile) *character.Character {
	now := time.Now()
	return &character.Character{
		ID:           id,
		Name:         name,
		EcosystemID:  ecosystemID,
		Profile:      profile,
		Emotions:     character.NewEmotionalState(),
		SocialEnergy: 1.0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// waitForEvent reads one event from the subscription or times out.
func waitForEvent(ch <-chan *notify.Event, timeout time.Duration) *notify.Event {
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		return nil
	}
}
