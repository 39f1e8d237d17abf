package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/xhad/jarvis/internal/models"
)

const defaultControlURL = "https://api.pinecone.io"

type PineconeConfig struct {
	APIKey     string
	IndexName  string
	Dimension  int
	BatchSize  int
	Cloud      string
	Region     string
	RateLimit  float64 // upsert batches per second
	Timeout    time.Duration
	ControlURL string // overridable for tests
}

// PineconeIndex is a minimal REST client to a Pinecone serverless index. The
// index is created on first use if missing; subsequent startups detect it and
// skip creation.
type PineconeIndex struct {
	config  PineconeConfig
	client  *http.Client
	limiter *rate.Limiter
	host    string
}

func NewPineconeWithConfig(ctx context.Context, config PineconeConfig) (*PineconeIndex, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}
	if config.IndexName == "" {
		config.IndexName = "jarvis-index"
	}
	if config.Dimension == 0 {
		config.Dimension = 384
	}
	if config.BatchSize == 0 || config.BatchSize > 200 {
		config.BatchSize = 200 // Pinecone upsert payload ceiling
	}
	if config.Cloud == "" {
		config.Cloud = "aws"
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.ControlURL == "" {
		config.ControlURL = defaultControlURL
	}

	p := &PineconeIndex{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}

	if err := p.ensureIndex(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Host      string `json:"host"`
}

// ensureIndex describes the named index and creates it when absent. A
// concurrent cold start may race the create call, so a conflict response is
// treated the same as an existing index.
func (p *PineconeIndex) ensureIndex(ctx context.Context) error {
	var desc indexDescription
	status, err := p.doJSON(ctx, http.MethodGet,
		fmt.Sprintf("%s/indexes/%s", p.config.ControlURL, p.config.IndexName), nil, &desc)
	if err != nil {
		return &StoreError{Op: "describe index", Err: err}
	}

	switch {
	case status == http.StatusOK:
		p.host = desc.Host
		return nil
	case status == http.StatusNotFound:
	default:
		return &StoreError{Op: "describe index", Err: fmt.Errorf("unexpected status %d", status)}
	}

	body := map[string]any{
		"name":      p.config.IndexName,
		"dimension": p.config.Dimension,
		"metric":    "cosine",
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  p.config.Cloud,
				"region": p.config.Region,
			},
		},
	}
	status, err = p.doJSON(ctx, http.MethodPost, p.config.ControlURL+"/indexes", body, &desc)
	if err != nil {
		return &StoreError{Op: "create index", Err: err}
	}
	if status == http.StatusConflict {
		// Lost the creation race; re-describe for the host.
		status, err = p.doJSON(ctx, http.MethodGet,
			fmt.Sprintf("%s/indexes/%s", p.config.ControlURL, p.config.IndexName), nil, &desc)
		if err != nil || status != http.StatusOK {
			return &StoreError{Op: "describe index", Err: fmt.Errorf("after create conflict: status %d, %v", status, err)}
		}
	} else if status >= 300 {
		return &StoreError{Op: "create index", Err: fmt.Errorf("unexpected status %d", status)}
	}

	p.host = desc.Host
	return nil
}

// Upsert submits vectors in sequential batches of at most BatchSize records.
// Ids are caller-generated; a collision is a silent overwrite since the store
// is idempotent by id.
func (p *PineconeIndex) Upsert(ctx context.Context, vectors []models.Vector) error {
	type record struct {
		ID       string          `json:"id"`
		Values   []float32       `json:"values"`
		Metadata models.Metadata `json:"metadata"`
	}

	for start := 0; start < len(vectors); start += p.config.BatchSize {
		end := start + p.config.BatchSize
		if end > len(vectors) {
			end = len(vectors)
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return &StoreError{Op: "upsert", Err: err}
		}

		batch := make([]record, 0, end-start)
		for _, v := range vectors[start:end] {
			batch = append(batch, record{ID: v.ID, Values: v.Values, Metadata: v.Metadata})
		}

		body := map[string]any{"vectors": batch}
		status, err := p.doJSON(ctx, http.MethodPost, p.dataURL("/vectors/upsert"), body, nil)
		if err != nil {
			return &StoreError{Op: "upsert", Err: err}
		}
		if status >= 300 {
			return &StoreError{Op: "upsert", Err: fmt.Errorf("unexpected status %d", status)}
		}
	}

	return nil
}

// Query returns up to topK nearest records. An empty index yields an empty
// result, not an error.
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.Match, error) {
	if topK <= 0 {
		topK = 5
	}

	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}

	var resp struct {
		Matches []struct {
			ID       string          `json:"id"`
			Score    float32         `json:"score"`
			Metadata models.Metadata `json:"metadata"`
		} `json:"matches"`
	}
	status, err := p.doJSON(ctx, http.MethodPost, p.dataURL("/query"), body, &resp)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	if status >= 300 {
		return nil, &StoreError{Op: "query", Err: fmt.Errorf("unexpected status %d", status)}
	}

	matches := make([]models.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, models.Match{Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

func (p *PineconeIndex) Close() {
	p.client.CloseIdleConnections()
}

func (p *PineconeIndex) dataURL(path string) string {
	host := p.host
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + path
}

func (p *PineconeIndex) doJSON(ctx context.Context, method, url string, body, out any) (int, error) {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}

	return resp.StatusCode, nil
}
