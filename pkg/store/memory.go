package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xhad/jarvis/internal/models"
)

// MemoryIndex is a brute-force cosine similarity index. It backs tests and
// no-infrastructure runs; nothing survives the process.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	ids       map[string]int
	vectors   []models.Vector
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	if dimension == 0 {
		dimension = 384
	}
	return &MemoryIndex{
		dimension: dimension,
		ids:       make(map[string]int),
	}
}

func (m *MemoryIndex) Upsert(_ context.Context, vectors []models.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range vectors {
		if len(v.Values) != m.dimension {
			return &StoreError{Op: "upsert", Err: fmt.Errorf("vector dimension %d, index expects %d", len(v.Values), m.dimension)}
		}
		if i, ok := m.ids[v.ID]; ok {
			m.vectors[i] = v
			continue
		}
		m.ids[v.ID] = len(m.vectors)
		m.vectors = append(m.vectors, v)
	}

	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int) ([]models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if topK <= 0 {
		topK = 5
	}

	// Stored vectors are unit-length, so dot product is cosine similarity.
	matches := make([]models.Match, 0, len(m.vectors))
	for _, v := range m.vectors {
		matches = append(matches, models.Match{
			Score:    dot(v.Values, vector),
			Metadata: v.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MemoryIndex) Close() {}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
