package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Embedder config
	if c.Embedder.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "embedder.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.Embedder.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "embedder.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.Embedder.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Generator config
	if c.Generator.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "generator.api_key",
			Message: "Gemini API key is required (set GEMINI_API_KEY)",
		})
	}

	if c.Generator.Temperature < 0 || c.Generator.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "generator.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Generator.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "generator.max_tokens",
			Message: "max_tokens must be positive",
		})
	}

	// Validate Store config
	switch c.Store.Type {
	case "pinecone":
		if c.Store.APIKey == "" {
			errors = append(errors, ValidationError{
				Field:   "store.api_key",
				Message: "Pinecone API key is required (set PINECONE_API_KEY)",
			})
		}
	case "pgvector":
		if c.Store.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "PostgreSQL connection string is required (set DATABASE_URL)",
			})
		} else if _, err := url.Parse(c.Store.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.url",
				Message: "invalid database URL",
			})
		}
	case "memory":
	default:
		errors = append(errors, ValidationError{
			Field:   "store.type",
			Message: fmt.Sprintf("unknown store type: %s", c.Store.Type),
		})
	}

	if c.Store.IndexName == "" {
		errors = append(errors, ValidationError{
			Field:   "store.index_name",
			Message: "index name is required",
		})
	}

	if c.Store.BatchSize < 1 || c.Store.BatchSize > 200 {
		errors = append(errors, ValidationError{
			Field:   "store.batch_size",
			Message: "batch_size must be between 1 and 200",
		})
	}

	if c.Store.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.top_k",
			Message: "top_k must be positive",
		})
	}

	if c.Store.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "store.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Chunker config
	if c.Chunker.Size < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.size",
			Message: "size must be positive",
		})
	}

	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		errors = append(errors, ValidationError{
			Field:   "chunker.overlap",
			Message: "overlap must be non-negative and less than size",
		})
	}

	return errors
}
