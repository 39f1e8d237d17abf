package llm

import (
	"context"
	"math"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/jarvis/internal/models"
)

func TestNormalize(t *testing.T) {
	vector := []float32{3, 4}

	normalized := normalize(vector)

	require.Len(t, normalized, 2)
	assert.InDelta(t, 0.6, normalized[0], 1e-6)
	assert.InDelta(t, 0.8, normalized[1], 1e-6)

	var norm float64
	for _, v := range normalized {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	vector := []float32{0, 0, 0}
	assert.Equal(t, vector, normalize(vector))
}

func TestNormalize_Deterministic(t *testing.T) {
	vector := []float32{0.1, -2.5, 7.3, 0.004}
	assert.Equal(t, normalize(vector), normalize(vector))
}

func TestNewEmbedderWithConfig_Defaults(t *testing.T) {
	emb, err := NewEmbedderWithConfig(EmbedderConfig{})
	require.NoError(t, err)
	assert.Equal(t, 384, emb.Dimension())
	assert.Equal(t, 30*time.Second, emb.config.Timeout)
}

func TestNewEmbedderWithConfig_TimeoutOverride(t *testing.T) {
	emb, err := NewEmbedderWithConfig(EmbedderConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, emb.config.Timeout)
}

// Exercised only when an Ollama server is reachable; otherwise skipped so the
// suite stays offline-safe.
func TestEmbed_Live(t *testing.T) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	resp, err := http.Get(baseURL + "/api/version")
	if err != nil {
		t.Skipf("ollama not reachable at %s: %v", baseURL, err)
	}
	resp.Body.Close()

	emb, err := NewEmbedderWithConfig(EmbedderConfig{BaseURL: baseURL})
	require.NoError(t, err)

	ctx := context.Background()
	first, err := emb.Embed(ctx, "the quick brown fox jumps over the lazy dog")
	if err != nil {
		t.Skipf("embedding model not available: %v", err)
	}
	require.Len(t, first, 384)

	var norm float64
	for _, v := range first {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	second, err := emb.Embed(ctx, "the quick brown fox jumps over the lazy dog")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same text must embed identically")
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("What is a vector?", []string{"first snippet", "second snippet"})

	assert.Contains(t, prompt, "- first snippet\n\n- second snippet")
	assert.Contains(t, prompt, "Question: What is a vector?")
	assert.Contains(t, prompt, "isn't covered in the uploaded notes")
	assert.Contains(t, prompt, "Answer:")
}

func TestBuildPrompt_NoSnippets(t *testing.T) {
	prompt := buildPrompt("anything", nil)
	assert.Contains(t, prompt, "Question: anything")
}

func TestNewGeneratorWithConfig_Defaults(t *testing.T) {
	gen, err := NewGeneratorWithConfig(context.Background(), GeneratorConfig{APIKey: "test-key"})
	require.NoError(t, err)
	defer gen.Close()

	assert.Equal(t, "gemini-1.5-flash", gen.config.Model)
	assert.InDelta(t, 0.7, gen.config.Temperature, 1e-9)
	assert.Equal(t, 4096, gen.config.MaxTokens)
	assert.Equal(t, 30*time.Second, gen.config.Timeout)
}

// A cancelled context fails the call before any network round trip, and the
// failure must come back as a conversational Answer, not a panic or hang.
func TestGeneratorAnswer_HonorsContext(t *testing.T) {
	gen, err := NewGeneratorWithConfig(context.Background(), GeneratorConfig{APIKey: "test-key"})
	require.NoError(t, err)
	defer gen.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answer := gen.Answer(ctx, "question", []string{"snippet"})
	assert.Equal(t, models.AnswerFailed, answer.Kind)
}

func TestNewGeneratorWithConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config GeneratorConfig
	}{
		{"missing api key", GeneratorConfig{}},
		{"temperature out of range", GeneratorConfig{APIKey: "k", Temperature: 3}},
		{"negative max tokens", GeneratorConfig{APIKey: "k", MaxTokens: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeneratorWithConfig(context.Background(), tt.config)
			assert.Error(t, err)
		})
	}
}
