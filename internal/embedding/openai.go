package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client is a Provider for OpenAI-compatible embeddings APIs
// (llama.cpp server, Ollama, OpenAI).
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	mu        sync.RWMutex
	dimension int // Learned from the first response when configured as 0
	client    *http.Client
}

// NewClient creates a new embeddings client.
// If dimension is 0 the size is taken from the first successful response,
// and every later response must match it.
func NewClient(baseURL, apiKey, model string, dimension int) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		Model:     model,
		dimension: dimension,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// Embed generates the embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: []string{text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embeddingsResp.Data) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddingsResp.Data))
	}

	data := embeddingsResp.Data[0].Embedding
	if len(data) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	if err := c.checkDimension(len(data)); err != nil {
		return nil, err
	}

	// Convert []float64 to []float32
	vec := make([]float32, len(data))
	for i, v := range data {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (c *Client) checkDimension(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = n
		return nil
	}
	if n != c.dimension {
		return fmt.Errorf("embedding has size %d, expected %d", n, c.dimension)
	}
	return nil
}

// Dimension returns the vector size, or 0 before the first response when not configured.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// ModelName returns the configured model.
func (c *Client) ModelName() string {
	return c.Model
}
