// Package ollama provides an Embedder backed by a local Ollama server,
// used when poempig runs fully offline instead of against OpenAI.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeNorman/poempig/pkg/embeddings"
)

const (
	// DefaultEmbeddingModel is used when no model is configured.
	// nomic-embed-text is a good fit for short poem and quote texts.
	DefaultEmbeddingModel = "nomic-embed-text"

	// DefaultBaseURL is where a locally running Ollama server listens.
	DefaultBaseURL = "http://localhost:11434"

	// requestTimeout bounds a single embed call. Cold model loads on the
	// Ollama side can take a while, so this is generous.
	requestTimeout = 120 * time.Second

	// maxErrorBody caps how much of an error response gets copied into
	// the returned error.
	maxErrorBody = 512
)

// Embedder embeds item and query text through Ollama's /api/embed endpoint.
type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// EmbedderConfig holds configuration for the Ollama embedder.
type EmbedderConfig struct {
	// BaseURL overrides DefaultBaseURL when set.
	BaseURL string

	// Model overrides DefaultEmbeddingModel when set.
	Model string
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbedder creates an embedder talking to an Ollama server.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	e := &Embedder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: requestTimeout},
	}
	if e.baseURL == "" {
		e.baseURL = DefaultBaseURL
	}
	if e.model == "" {
		e.model = DefaultEmbeddingModel
	}
	return e, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", embeddings.ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", embeddings.ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling ollama: %v", embeddings.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", embeddings.ErrEmbedding, resp.StatusCode, string(body))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrEmbedding, err)
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embeddings", embeddings.ErrEmbedding)
	}

	return out.Embeddings[0], nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
