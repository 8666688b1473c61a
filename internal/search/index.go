package search

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Index is the vector index gateway: it owns embedding generation on both
// paths so ingestion and query always share one embedding space.
type Index struct {
	repo       Repository
	embeddings EmbeddingsClient
	log        *logrus.Entry
}

func NewIndex(repo Repository, embeddings EmbeddingsClient) *Index {
	return &Index{
		repo:       repo,
		embeddings: embeddings,
		log:        logrus.WithField("component", "index"),
	}
}

func (ix *Index) InitSchema(ctx context.Context) error {
	return ix.repo.InitSchema(ctx)
}

// ReplaceAll embeds the chunk texts in bulk and swaps the whole collection
// for them. Nothing of the previous ingestion survives.
func (ix *Index) ReplaceAll(ctx context.Context, chunks []DocumentChunk) error {
	if len(chunks) == 0 {
		ix.log.Info("no chunks to index")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.TextChunk
	}

	ix.log.Infof("generating embeddings for %d chunks", len(texts))
	embeddings, err := ix.embeddings.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(chunks))
	}

	if err := ix.repo.ReplaceAll(ctx, chunks, embeddings); err != nil {
		return err
	}
	ix.log.Infof("replaced vector collection with %d chunks", len(chunks))
	return nil
}

// Query embeds the query text with the ingestion-time model and returns up to
// k nearest chunks by ascending distance.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]RetrievedChunk, error) {
	vec, err := ix.embeddings.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.repo.Query(ctx, vec, k)
}
