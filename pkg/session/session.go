package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xhad/jarvis/internal/models"
	"github.com/xhad/jarvis/internal/types"
)

// NoDataNotice is returned by Ask when retrieval finds nothing; generation is
// skipped and no chat turn is recorded.
const NoDataNotice = "No data found. Please upload files first."

// SessionConfig wires the pipeline components into one user session.
type SessionConfig struct {
	Extractor  types.Extractor
	Chunker    types.Chunker
	Embedder   types.Embedder
	Index      types.VectorIndex
	Generator  types.Generator
	TopK       int
	OnProgress func(completed, total int) // per-chunk ingest progress
}

// Session runs the ingest and chat flows and holds the conversation history
// for its lifetime. History is append-only and is not persisted anywhere.
type Session struct {
	config  SessionConfig
	history []models.ChatTurn
}

func NewWithConfig(config SessionConfig) (*Session, error) {
	if config.Extractor == nil || config.Chunker == nil || config.Embedder == nil ||
		config.Index == nil || config.Generator == nil {
		return nil, fmt.Errorf("all pipeline components are required")
	}
	if config.TopK == 0 {
		config.TopK = 5
	}

	return &Session{config: config}, nil
}

// Ingest runs extract, chunk, embed, and upsert for each file in order and
// returns the total number of chunks stored. The first failure aborts the
// whole batch; files after it are not processed.
func (s *Session) Ingest(ctx context.Context, files []models.Document) (int, error) {
	total := 0
	for _, file := range files {
		n, err := s.ingestFile(ctx, file)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *Session) ingestFile(ctx context.Context, file models.Document) (int, error) {
	text, err := s.config.Extractor.Extract(file.Name, file.Data)
	if err != nil {
		return 0, err
	}

	chunks := s.config.Chunker.Split(text)

	vectors := make([]models.Vector, 0, len(chunks))
	for i, chunk := range chunks {
		values, err := s.config.Embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, err
		}
		vectors = append(vectors, models.Vector{
			ID:     uuid.NewString(),
			Values: values,
			Metadata: models.Metadata{
				Text:   chunk,
				Source: file.Name,
			},
		})
		if s.config.OnProgress != nil {
			s.config.OnProgress(i+1, len(chunks))
		}
	}

	if err := s.config.Index.Upsert(ctx, vectors); err != nil {
		return 0, err
	}

	return len(chunks), nil
}

// Ask retrieves the closest chunks to the question and passes them to the
// generator. Retrieval and embedding failures propagate; generation failures
// come back as conversational text inside a recorded turn.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	vector, err := s.config.Embedder.Embed(ctx, question)
	if err != nil {
		return "", err
	}

	matches, err := s.config.Index.Query(ctx, vector, s.config.TopK)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		return NoDataNotice, nil
	}

	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, m.Metadata.Text)
	}

	answer := s.config.Generator.Answer(ctx, question, snippets).String()
	s.history = append(s.history, models.ChatTurn{
		Question: question,
		Answer:   answer,
	})

	return answer, nil
}

// History returns a copy of the session transcript in chronological order.
func (s *Session) History() []models.ChatTurn {
	out := make([]models.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}
