// Package qdrant is a minimal REST client backend for a Qdrant server. It is
// an optional alternative to the local SQLite store for installations that
// already run Qdrant.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pdfrag/internal/domain"
)

// Config contains connection details for a Qdrant collection.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store talks to one Qdrant collection. Cosine distance is assumed and the
// collection is created on Init when missing.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

// NewStore creates a Qdrant-backed store.
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist. Qdrant answers 200 when
// the collection already exists with the same schema.
func (s *Store) Init(ctx context.Context, _ string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

// Append upserts one point per entry. Point ids follow insertion order so tie
// ordering stays stable.
func (s *Store) Append(ctx context.Context, entries []domain.Entry) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     count + i,
			"vector": e.Vector,
			"payload": map[string]any{
				"source":      e.Chunk.Source,
				"page":        e.Chunk.Page,
				"chunk_index": e.Chunk.Index,
				"text":        e.Chunk.Text,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body, nil)
}

// Search runs a nearest-neighbor query over the collection.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = 4
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			chunk.Page = int(v)
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			chunk.Index = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

// Count returns the exact number of points in the collection. A missing
// collection reads as an uninitialized store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection),
		map[string]any{"exact": true}, &resp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreNotInitialized, err)
	}
	return resp.Result.Count, nil
}

// Model is not recorded by this backend; the model-mismatch guard is skipped.
func (s *Store) Model(_ context.Context) (string, error) { return "", nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) do(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return json.Unmarshal(payload, out)
	}
	return nil
}
