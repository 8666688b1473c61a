package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Repository persists chunk embeddings and runs nearest-neighbor queries.
type Repository interface {
	InitSchema(ctx context.Context) error
	ReplaceAll(ctx context.Context, chunks []DocumentChunk, embeddings [][]float32) error
	Query(ctx context.Context, embedding []float32, limit int) ([]RetrievedChunk, error)
}

// EmbeddingDim must match the embedding model's output dimensionality; the
// column type pins it so a model swap fails loudly instead of degrading
// relevance.
const EmbeddingDim = 768

type PgRepository struct {
	db *pgxpool.Pool
}

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

// InitSchema idempotently creates the extension, table and ANN index. Safe to
// call on every startup.
func (r *PgRepository) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunk (
			chunk_id    text PRIMARY KEY,
			document_id text NOT NULL,
			source_type text NOT NULL,
			content     text NOT NULL,
			metadata    jsonb NOT NULL DEFAULT '{}'::jsonb,
			embedding   vector(%d) NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now()
		)`, EmbeddingDim),
		`CREATE INDEX IF NOT EXISTS document_chunk_embedding_idx
			ON document_chunk USING hnsw (embedding vector_l2_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init vector schema: %w", err)
		}
	}
	return nil
}

// ReplaceAll deletes every stored chunk and inserts the new set in a single
// transaction, so readers see either the old collection or the new one, never
// a mix. Intended as a maintenance-time operation; it is not serialized
// against concurrent ingestion runs.
func (r *PgRepository) ReplaceAll(ctx context.Context, chunks []DocumentChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunk`); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	batch := &pgx.Batch{}
	for i, c := range chunks {
		meta := c.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		batch.Queue(`
			INSERT INTO document_chunk (chunk_id, document_id, source_type, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, c.ChunkID, c.DocumentID, string(c.SourceType), c.TextChunk, meta, pgvector.NewVector(embeddings[i]))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %d chunks: %w", len(chunks), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Query returns up to limit chunks ordered by ascending distance from the
// query embedding. An empty collection yields an empty slice, not an error.
func (r *PgRepository) Query(ctx context.Context, embedding []float32, limit int) ([]RetrievedChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx, `
		SELECT chunk_id, content, metadata, embedding <-> $1 AS distance
		FROM document_chunk
		ORDER BY embedding <-> $1
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	defer rows.Close()

	var out []RetrievedChunk
	for rows.Next() {
		var c RetrievedChunk
		if err := rows.Scan(&c.ID, &c.TextChunk, &c.Metadata, &c.Distance); err != nil {
			return nil, fmt.Errorf("scan retrieved chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
