package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbedderConfig represents the configuration for the embedding model.
type EmbedderConfig struct {
	Model     string
	BaseURL   string // Ollama server URL
	VectorDim int
	Timeout   time.Duration
}

// Embedder turns chunk or query text into fixed-dimension unit vectors.
type Embedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

// EmbeddingError wraps a failure of the underlying model. Treated as fatal for
// the current operation; there is no retry policy.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "all-minilm:latest" // 384-dimension sentence embeddings
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.VectorDim == 0 {
		config.VectorDim = 384
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	emb, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
		ollama.WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}

	return &Embedder{
		config: config,
		llm:    emb,
	}, nil
}

// Embed returns the L2-normalized embedding of text, so cosine similarity
// against stored vectors reduces to a dot product.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(embeddings) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("model returned no embedding")}
	}

	vector := embeddings[0]
	if len(vector) != e.config.VectorDim {
		return nil, &EmbeddingError{
			Err: fmt.Errorf("model returned %d dimensions, index expects %d", len(vector), e.config.VectorDim),
		}
	}

	return normalize(vector), nil
}

// Dimension reports the configured vector dimensionality.
func (e *Embedder) Dimension() int {
	return e.config.VectorDim
}

func normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}
	norm := float32(math.Sqrt(sum))

	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = v / norm
	}
	return normalized
}
