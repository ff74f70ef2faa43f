// Package embedding provides clients for the external embedding service.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pdfrag/internal/domain"
)

// Known dimensionalities of OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client is an OpenAI-compatible embeddings client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	maxRetries int
	client     *http.Client
}

// NewClient creates an embeddings client. The API key is required; other
// fields fall back to defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	dims, ok := modelDimensions[cfg.Model]
	if !ok {
		dims = 1536
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dims,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrEmbeddingService)
	}
	return vectors[0], nil
}

// EmbedBatch returns one embedding per input text, in input order. Transient
// failures (429 and 5xx) are retried with exponential backoff, honouring
// Retry-After when the server sends one.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	var after string
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if !sleepBackoff(ctx, attempt, after) {
				return nil, ctx.Err()
			}
		}
		payload, status, err := c.post(ctx, c.baseURL+"/embeddings", body)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			after = ""
			continue
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrEmbeddingService, status)
			after = retryAfter(payload.header)
			continue
		}
		return decodeEmbeddings(payload.body, status, len(texts))
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingService, lastErr)
}

// Dimensions returns the vector size produced by the configured model.
func (c *Client) Dimensions() int { return c.dimensions }

// ModelName returns the configured embedding model identifier.
func (c *Client) ModelName() string { return c.model }

type response struct {
	body   []byte
	header http.Header
}

func (c *Client) post(ctx context.Context, url string, body []byte) (response, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return response{}, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return response{}, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, 0, fmt.Errorf("read response: %w", err)
	}
	return response{body: payload, header: resp.Header}, resp.StatusCode, nil
}

func decodeEmbeddings(payload []byte, status, want int) ([][]float32, error) {
	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrEmbeddingService, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingService, out.Error.Message)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrEmbeddingService, status)
	}
	if len(out.Data) != want {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbeddingService, len(out.Data), want)
	}
	vectors := make([][]float32, want)
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= want {
			return nil, fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbeddingService, d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}

// retryAfter extracts a Retry-After header value as a delay, or "".
func retryAfter(h http.Header) string {
	if h == nil {
		return ""
	}
	return h.Get("Retry-After")
}

// sleepBackoff waits before the next attempt and reports whether to retry.
// The delay doubles per attempt starting at 200ms, capped at 5s, unless the
// server asked for a specific wait.
func sleepBackoff(ctx context.Context, attempt int, after string) bool {
	delay := 200 * time.Millisecond << attempt
	if delay > 5*time.Second {
		delay = 5 * time.Second
	}
	if after != "" {
		if secs, err := strconv.Atoi(after); err == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}
