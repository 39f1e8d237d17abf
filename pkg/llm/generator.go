package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/xhad/jarvis/internal/models"
)

const degradedNotice = "I couldn't generate a response. This might be due to content safety filters or insufficient context."

// GeneratorConfig represents the configuration for the answer generator.
type GeneratorConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Generator asks a hosted Gemini model to answer a question grounded in
// retrieved context snippets.
type Generator struct {
	config GeneratorConfig
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeneratorWithConfig(ctx context.Context, config GeneratorConfig) (*Generator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("generator API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	} else if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generative model: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	model.SetMaxOutputTokens(int32(config.MaxTokens))

	return &Generator{
		config: config,
		client: client,
		model:  model,
	}, nil
}

// Answer builds a grounding prompt from the snippets and requests a response.
// Failures are folded into the returned Answer instead of an error so the chat
// loop stays alive.
func (g *Generator) Answer(ctx context.Context, question string, snippets []string) models.Answer {
	prompt := buildPrompt(question, snippets)

	// The genai client speaks gRPC, so the request deadline carries the
	// configured timeout rather than an http.Client.
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.Answer{Kind: models.AnswerFailed, Text: err.Error()}
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok && strings.TrimSpace(string(text)) != "" {
				return models.Answer{Kind: models.AnswerOk, Text: strings.TrimSpace(string(text))}
			}
		}
	}

	// Safety filtering or an empty candidate list: degraded, but not an error.
	return models.Answer{Kind: models.AnswerDegraded, Text: degradedNotice}
}

func (g *Generator) Close() error {
	return g.client.Close()
}

func buildPrompt(question string, snippets []string) string {
	var context strings.Builder
	for i, snippet := range snippets {
		if i > 0 {
			context.WriteString("\n\n")
		}
		context.WriteString("- ")
		context.WriteString(snippet)
	}

	return fmt.Sprintf(`Use the context below to answer the question. Provide a comprehensive answer based on the context provided.
If the specific information isn't in the context, you can say: "This specific information isn't covered in the uploaded notes, but based on the context provided..."

Context:
%s

Question: %s
Answer:`, context.String(), question)
}
