package types

import (
	"context"

	"github.com/xhad/jarvis/internal/models"
)

// Core interfaces
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

type Chunker interface {
	Split(text string) []string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

type VectorIndex interface {
	Upsert(ctx context.Context, vectors []models.Vector) error
	Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error)
	Close()
}

type Generator interface {
	Answer(ctx context.Context, question string, snippets []string) models.Answer
}

