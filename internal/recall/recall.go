// Package recall is the semantic interaction memory: it embeds
// interaction summaries into a Qdrant collection and retrieves related
// past moments to enrich dialogue prompts. Entirely optional — when
// the vector store or embedder is down, prompts fall back to the
// recent-history window alone.
package recall

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/relationship"
)

const collection = "ensemble_interactions"

// Index stores and retrieves interaction memories.
type Index struct {
	embedder Embedder
	client   *qdrantClient
	topK     uint64
	logger   *zap.Logger
}

// NewIndex dials Qdrant and ensures the collection exists.
func NewIndex(cfg QdrantConfig, embedder Embedder, topK int, logger *zap.Logger) (*Index, error) {
	client, err := dialQdrant(cfg)
	if err != nil {
		return nil, err
	}
	if err := client.ensureCollection(context.Background(), collection, uint64(embedder.Dimension())); err != nil {
		client.close()
		return nil, err
	}
	if topK <= 0 {
		topK = 3
	}
	logger.Info("Qdrant connected", zap.String("collection", collection))
	return &Index{embedder: embedder, client: client, topK: uint64(topK), logger: logger}, nil
}

func pairKey(ecosystemID, a, b string) string {
	ca, cb := relationship.CanonicalPair(a, b)
	return ecosystemID + "|" + ca + "|" + cb
}

// Remember embeds and stores one interaction summary. Best effort:
// failures are logged, never propagated.
func (i *Index) Remember(ctx context.Context, id, ecosystemID, a, b, summary string) {
	vec, err := i.embedder.Embed(ctx, summary)
	if err != nil {
		i.logger.Warn("recall embed failed", zap.String("interaction", id), zap.Error(err))
		return
	}
	err = i.client.upsert(ctx, collection, id, vec, map[string]string{
		"pair":    pairKey(ecosystemID, a, b),
		"summary": summary,
	})
	if err != nil {
		i.logger.Warn("recall upsert failed", zap.String("interaction", id), zap.Error(err))
	}
}

// Related returns summaries of the most similar past interactions
// between the pair.
func (i *Index) Related(ctx context.Context, ecosystemID, a, b, text string) ([]string, error) {
	vec, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("recall embed: %w", err)
	}
	hits, err := i.client.search(ctx, collection, vec, pairKey(ecosystemID, a, b), i.topK)
	if err != nil {
		return nil, err
	}
	summaries := make([]string, 0, len(hits))
	for _, h := range hits {
		if s := h["summary"]; s != "" {
			summaries = append(summaries, s)
		}
	}
	return summaries, nil
}

// Close tears down the Qdrant connection.
func (i *Index) Close() error {
	return i.client.close()
}
