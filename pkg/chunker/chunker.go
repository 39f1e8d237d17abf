package chunker

import (
	"fmt"
	"strings"
)

type ChunkerConfig struct {
	Size    int // maximum words per chunk
	Overlap int // words shared with the previous chunk
}

type Chunker struct {
	config ChunkerConfig
}

// NewWithConfig validates the window geometry up front. An overlap at or above
// the chunk size would stop the window from advancing, so it is rejected
// rather than clamped.
func NewWithConfig(config ChunkerConfig) (*Chunker, error) {
	if config.Size == 0 {
		config.Size = 800
	}
	if config.Overlap == 0 {
		config.Overlap = 150
	}
	if config.Size < 0 {
		return nil, fmt.Errorf("chunk size cannot be negative")
	}
	if config.Overlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative")
	}
	if config.Overlap >= config.Size {
		return nil, fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)", config.Overlap, config.Size)
	}

	return &Chunker{config: config}, nil
}

// Split cuts text into overlapping word windows. Windows never split a word;
// the final window may be shorter than the configured size. Empty or
// whitespace-only text yields no chunks.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)

	var chunks []string
	step := c.config.Size - c.config.Overlap
	for start := 0; start < len(words); start += step {
		end := start + c.config.Size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}
