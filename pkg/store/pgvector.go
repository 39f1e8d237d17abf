package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/xhad/jarvis/internal/models"
)

type PgVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// PgVectorIndex keeps chunk vectors in PostgreSQL with the pgvector extension.
// It is an alternative to the hosted index for self-managed deployments.
type PgVectorIndex struct {
	config PgVectorConfig
	pool   *pgxpool.Pool
}

func NewPgVectorWithConfig(ctx context.Context, config PgVectorConfig) (*PgVectorIndex, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 384
	}
	if config.BatchSize == 0 {
		config.BatchSize = 200
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}

	idx := &PgVectorIndex{
		config: config,
		pool:   pool,
	}

	if err := idx.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *PgVectorIndex) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return &StoreError{Op: "create extension", Err: err}
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			embedding vector(%d)
		)`, idx.config.TableName, idx.config.VectorDim)

	_, err = idx.pool.Exec(ctx, createTable)
	if err != nil {
		return &StoreError{Op: "create table", Err: err}
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		idx.config.TableName, idx.config.TableName)

	_, err = idx.pool.Exec(ctx, createIndex)
	if err != nil {
		return &StoreError{Op: "create index", Err: err}
	}

	return nil
}

func (idx *PgVectorIndex) Upsert(ctx context.Context, vectors []models.Vector) error {
	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, text, source, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			source = EXCLUDED.source,
			embedding = EXCLUDED.embedding`,
		idx.config.TableName)

	for _, v := range vectors {
		_, err := tx.Exec(ctx, stmt, v.ID, v.Metadata.Text, v.Metadata.Source, pgvector.NewVector(v.Values))
		if err != nil {
			return &StoreError{Op: "upsert", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}

	return nil
}

func (idx *PgVectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	// Vectors are unit-length, so cosine similarity is 1 - cosine distance.
	query := fmt.Sprintf(`
		SELECT text, source, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.Metadata.Text, &m.Metadata.Source, &m.Score); err != nil {
			return nil, &StoreError{Op: "query", Err: err}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	return matches, nil
}

func (idx *PgVectorIndex) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}
