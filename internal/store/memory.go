package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/relationship"
)

// Memory is an in-process Store used in tests and when Postgres is
// unavailable. All accessors copy records, matching the read-your-
// writes-after-save semantics of the Postgres implementation.
type Memory struct {
	mu            sync.RWMutex
	characters    map[string]*character.Character
	relationships map[string]*relationship.Relationship
	interactions  []*InteractionRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		characters:    make(map[string]*character.Character),
		relationships: make(map[string]*relationship.Relationship),
	}
}

func relKey(ecosystemID, a, b string) string {
	ca, cb := relationship.CanonicalPair(a, b)
	return ecosystemID + "|" + ca + "|" + cb
}

// GetCharacter returns a copy of the character.
func (m *Memory) GetCharacter(_ context.Context, id string) (*character.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

// SaveCharacter stores a copy of the character.
func (m *Memory) SaveCharacter(_ context.Context, c *character.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characters[c.ID] = c.Clone()
	return nil
}

// ListCharacters returns copies of all characters in an ecosystem.
func (m *Memory) ListCharacters(_ context.Context, ecosystemID string) ([]*character.Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*character.Character
	for _, c := range m.characters {
		if c.EcosystemID == ecosystemID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetRelationship returns a copy of the pair's ledger entry, or nil.
func (m *Memory) GetRelationship(_ context.Context, ecosystemID, a, b string) (*relationship.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, ok := m.relationships[relKey(ecosystemID, a, b)]
	if !ok {
		return nil, nil
	}
	return rel.Clone(), nil
}

// SaveRelationship stores a copy of the ledger entry.
func (m *Memory) SaveRelationship(_ context.Context, rel *relationship.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relationships[relKey(rel.EcosystemID, rel.CharA, rel.CharB)] = rel.Clone()
	return nil
}

// SaveInteraction appends a copy of the record.
func (m *Memory) SaveInteraction(_ context.Context, rec *InteractionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.interactions = append(m.interactions, &cp)
	return nil
}

// RecentInteractions returns up to limit records between a pair, most
// recent first.
func (m *Memory) RecentInteractions(_ context.Context, ecosystemID, a, b string, limit int) ([]*InteractionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	ca, cb := relationship.CanonicalPair(a, b)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*InteractionRecord
	for i := len(m.interactions) - 1; i >= 0 && len(out) < limit; i-- {
		r := m.interactions[i]
		if r.EcosystemID != ecosystemID {
			continue
		}
		ra, rb := relationship.CanonicalPair(r.InitiatorID, r.TargetID)
		if ra == ca && rb == cb {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}
