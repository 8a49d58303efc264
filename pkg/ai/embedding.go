package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// EmbeddingClient calls an OpenAI-compatible /embeddings endpoint
type EmbeddingClient struct {
	apiKey    string
	baseURL   string
	model     string
	batchSize int
	client    *http.Client
}

// NewEmbeddingClient creates an embedding client from config
func NewEmbeddingClient(cfg *config.EmbeddingConfig) *EmbeddingClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return &EmbeddingClient{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		batchSize: batch,
		client:    &http.Client{Timeout: timeout},
	}
}

// Model returns the configured embedding model id
func (e *EmbeddingClient) Model() string {
	return e.model
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order. Inputs are sent in
// batches of the configured size.
func (e *EmbeddingClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		vecs, err := e.embedBatch(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *EmbeddingClient) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	b, err := json.Marshal(embeddingsRequest{Model: e.model, Input: clean})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var er embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}

	out := make([][]float32, len(clean))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("embeddings response missing index %d of %d", i, len(out))
		}
	}
	return out, nil
}
