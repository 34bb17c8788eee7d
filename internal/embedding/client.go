package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client produces embedding vectors for text. Dimensionality is fixed by the
// backing model.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options configures the Ollama embedding client.
type Options struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// ErrEmptyText indicates there is nothing to embed.
var ErrEmptyText = errors.New("text to embed is empty")

type ollamaClient struct {
	baseURL   string
	model     string
	dimension int
	http      *http.Client
}

// NewOllamaClient builds a Client backed by a local Ollama embeddings endpoint.
func NewOllamaClient(opts Options) Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ollamaClient{
		baseURL:   opts.BaseURL,
		model:     opts.Model,
		dimension: opts.Dimension,
		http:      &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *ollamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if c.dimension > 0 && len(decoded.Embedding) != c.dimension {
		return nil, fmt.Errorf("expected embedding dimension %d, got %d", c.dimension, len(decoded.Embedding))
	}
	return decoded.Embedding, nil
}
