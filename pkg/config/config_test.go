package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
embedder:
  base_url: "http://localhost:11434"
  model: "all-minilm:latest"
  vector_dim: 384

generator:
  api_key: "test-gemini-key"
  model: "gemini-1.5-flash"
  temperature: 0.5
  max_tokens: 2048

store:
  type: "pinecone"
  api_key: "test-pinecone-key"
  index_name: "test-index"
  batch_size: 100
  top_k: 3

chunker:
  size: 500
  overlap: 100
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "http://localhost:11434", config.Embedder.BaseURL)
	assert.Equal(t, "all-minilm:latest", config.Embedder.Model)
	assert.Equal(t, 384, config.Embedder.VectorDim)
	assert.Equal(t, 0.5, config.Generator.Temperature)
	assert.Equal(t, 2048, config.Generator.MaxTokens)
	assert.Equal(t, "test-index", config.Store.IndexName)
	assert.Equal(t, 100, config.Store.BatchSize)
	assert.Equal(t, 3, config.Store.TopK)
	assert.Equal(t, 500, config.Chunker.Size)
	assert.Equal(t, 100, config.Chunker.Overlap)

	// Defaults fill the gaps the file left
	assert.Equal(t, "gemini-1.5-flash", config.Generator.Model)
	assert.Equal(t, 15, config.Store.TimeoutSecs)
	assert.Equal(t, "aws", config.Store.Cloud)
	assert.Equal(t, ":8080", config.Server.Addr)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		applyDefaults(c)
		c.Generator.APIKey = "gemini-key"
		c.Store.APIKey = "pinecone-key"
		return c
	}

	t.Run("valid config", func(t *testing.T) {
		errors := valid().Validate()
		assert.Empty(t, errors)
	})

	t.Run("missing api keys", func(t *testing.T) {
		c := valid()
		c.Generator.APIKey = ""
		c.Store.APIKey = ""

		errors := c.Validate()
		require.Len(t, errors, 2)
		assert.Contains(t, errors[0].Error(), "Gemini API key is required")
		assert.Contains(t, errors[1].Error(), "Pinecone API key is required")
	})

	t.Run("pgvector requires connection string", func(t *testing.T) {
		c := valid()
		c.Store.Type = "pgvector"
		c.Store.URL = ""

		errors := c.Validate()
		require.Len(t, errors, 1)
		assert.Contains(t, errors[0].Error(), "PostgreSQL connection string is required")
	})

	t.Run("memory store needs no credentials", func(t *testing.T) {
		c := valid()
		c.Store.Type = "memory"
		c.Store.APIKey = ""

		assert.Empty(t, c.Validate())
	})

	t.Run("unknown store type", func(t *testing.T) {
		c := valid()
		c.Store.Type = "redis"

		errors := c.Validate()
		require.Len(t, errors, 1)
		assert.Equal(t, "store.type", errors[0].Field)
	})

	t.Run("overlap at or above size", func(t *testing.T) {
		c := valid()
		c.Chunker.Size = 100
		c.Chunker.Overlap = 100

		errors := c.Validate()
		require.Len(t, errors, 1)
		assert.Contains(t, errors[0].Error(), "overlap must be non-negative and less than size")
	})

	t.Run("batch size above store ceiling", func(t *testing.T) {
		c := valid()
		c.Store.BatchSize = 500

		errors := c.Validate()
		require.Len(t, errors, 1)
		assert.Equal(t, "store.batch_size", errors[0].Field)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("PINECONE_API_KEY", "env-pinecone-key")
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("INDEX_NAME", "env-index")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.Embedder.BaseURL)
	assert.Equal(t, "env-pinecone-key", config.Store.APIKey)
	assert.Equal(t, "env-gemini-key", config.Generator.APIKey)
	assert.Equal(t, "env-index", config.Store.IndexName)
	assert.Equal(t, "postgres://env-db:5432/test", config.Store.URL)
}
