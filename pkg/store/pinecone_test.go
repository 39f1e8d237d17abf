package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/jarvis/internal/models"
	"github.com/xhad/jarvis/pkg/store"
)

// fakePinecone mocks both the control plane and the data plane of a
// serverless index on a single test server.
type fakePinecone struct {
	mu          sync.Mutex
	exists      bool
	created     int
	batchSizes  []int
	records     map[string]models.Metadata
	queryResult []map[string]any

	server *httptest.Server
}

func newFakePinecone(exists bool) *fakePinecone {
	f := &fakePinecone{
		exists:  exists,
		records: make(map[string]models.Metadata),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/indexes/", f.handleDescribe)
	mux.HandleFunc("/indexes", f.handleCreate)
	mux.HandleFunc("/vectors/upsert", f.handleUpsert)
	mux.HandleFunc("/query", f.handleQuery)
	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakePinecone) describeBody() map[string]any {
	return map[string]any{
		"name":      "test-index",
		"dimension": 3,
		"host":      f.server.URL, // scheme included so the client talks back to us
	}
}

func (f *fakePinecone) handleDescribe(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(f.describeBody())
}

func (f *fakePinecone) handleCreate(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.exists {
		w.WriteHeader(http.StatusConflict)
		return
	}
	f.exists = true
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(f.describeBody())
}

func (f *fakePinecone) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Vectors []struct {
			ID       string          `json:"id"`
			Values   []float32       `json:"values"`
			Metadata models.Metadata `json:"metadata"`
		} `json:"vectors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchSizes = append(f.batchSizes, len(body.Vectors))
	for _, v := range body.Vectors {
		f.records[v.ID] = v.Metadata
	}
	json.NewEncoder(w).Encode(map[string]any{"upsertedCount": len(body.Vectors)})
}

func (f *fakePinecone) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TopK            int  `json:"topK"`
		IncludeMetadata bool `json:"includeMetadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	matches := f.queryResult
	if len(matches) > body.TopK {
		matches = matches[:body.TopK]
	}
	json.NewEncoder(w).Encode(map[string]any{"matches": matches})
}

func newTestIndex(t *testing.T, f *fakePinecone, batchSize int) *store.PineconeIndex {
	t.Helper()
	idx, err := store.NewPineconeWithConfig(context.Background(), store.PineconeConfig{
		APIKey:     "test-key",
		IndexName:  "test-index",
		Dimension:  3,
		BatchSize:  batchSize,
		RateLimit:  1000, // keep the test fast
		ControlURL: f.server.URL,
	})
	require.NoError(t, err)
	return idx
}

func TestPinecone_CreatesMissingIndex(t *testing.T) {
	f := newFakePinecone(false)
	defer f.server.Close()

	idx := newTestIndex(t, f, 2)
	defer idx.Close()

	assert.Equal(t, 1, f.created)
}

func TestPinecone_SkipsExistingIndex(t *testing.T) {
	f := newFakePinecone(true)
	defer f.server.Close()

	idx := newTestIndex(t, f, 2)
	defer idx.Close()

	assert.Equal(t, 0, f.created)
}

func TestPinecone_UpsertBatching(t *testing.T) {
	f := newFakePinecone(true)
	defer f.server.Close()

	idx := newTestIndex(t, f, 2)
	defer idx.Close()

	vectors := make([]models.Vector, 5)
	for i := range vectors {
		vectors[i] = models.Vector{
			ID:       fmt.Sprintf("id-%d", i),
			Values:   []float32{1, 0, 0},
			Metadata: models.Metadata{Text: fmt.Sprintf("chunk %d", i), Source: "notes.pdf"},
		}
	}

	require.NoError(t, idx.Upsert(context.Background(), vectors))

	assert.Equal(t, []int{2, 2, 1}, f.batchSizes)
	assert.Len(t, f.records, 5)
	assert.Equal(t, "notes.pdf", f.records["id-3"].Source)
}

func TestPinecone_Query(t *testing.T) {
	f := newFakePinecone(true)
	defer f.server.Close()

	idx := newTestIndex(t, f, 2)
	defer idx.Close()

	f.queryResult = []map[string]any{
		{"id": "a", "score": 0.92, "metadata": map[string]string{"text": "best match", "source": "notes.pdf"}},
		{"id": "b", "score": 0.81, "metadata": map[string]string{"text": "second", "source": "deck.pptx"}},
	}

	matches, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "best match", matches[0].Metadata.Text)
	assert.InDelta(t, 0.92, matches[0].Score, 1e-6)
	assert.Equal(t, "deck.pptx", matches[1].Metadata.Source)
}

func TestPinecone_QueryEmptyIndex(t *testing.T) {
	f := newFakePinecone(true)
	defer f.server.Close()

	idx := newTestIndex(t, f, 2)
	defer idx.Close()

	matches, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPinecone_ErrorsWrapped(t *testing.T) {
	f := newFakePinecone(true)
	idx := newTestIndex(t, f, 2)
	// A dead data plane surfaces as a StoreError
	f.server.Close()

	err := idx.Upsert(context.Background(), []models.Vector{
		{ID: "a", Values: []float32{1, 0, 0}},
	})

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.True(t, strings.Contains(storeErr.Error(), "upsert"))
}

func TestPinecone_RequiresAPIKey(t *testing.T) {
	_, err := store.NewPineconeWithConfig(context.Background(), store.PineconeConfig{})
	assert.Error(t, err)
}
