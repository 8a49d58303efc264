package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
)

// Embedder produces one vector per input
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// CachingEmbedder serves repeated inputs from a VectorCache. Embeddings are
// deterministic per model and input, so entries are keyed on both.
type CachingEmbedder struct {
	next   Embedder
	store  VectorCache
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingEmbedder wraps next with store
func NewCachingEmbedder(next Embedder, store VectorCache, model string, ttl time.Duration, logger *zap.Logger) *CachingEmbedder {
	return &CachingEmbedder{next: next, store: store, model: model, ttl: ttl, logger: logger}
}

// Key returns the cache key for input under model
func Key(model, input string) string {
	sum := sha256.Sum256([]byte(input))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}

// Embed looks every input up in the cache and sends the misses to the
// wrapped embedder in a single call, preserving input order.
func (c *CachingEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = Key(c.model, in)
	}

	out, err := c.store.GetMany(ctx, keys)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("⚠️ embedding cache read failed, embedding all inputs", zap.Error(err))
		}
		out = make([][]float32, len(inputs))
	}

	var missIdx []int
	var missInputs []string
	for i := range inputs {
		if out[i] == nil {
			missIdx = append(missIdx, i)
			missInputs = append(missInputs, inputs[i])
		}
	}
	if len(missInputs) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missInputs)
	if err != nil {
		return nil, err
	}

	fresh := make(map[string][]float32, len(vecs))
	for j, i := range missIdx {
		out[i] = vecs[j]
		fresh[keys[i]] = vecs[j]
	}
	if err := c.store.SetMany(ctx, fresh, c.ttl); err != nil && c.logger != nil {
		c.logger.Warn("⚠️ embedding cache write failed", zap.Error(err))
	}

	if c.logger != nil {
		c.logger.Debug("embedding cache",
			zap.Int("hits", len(inputs)-len(missInputs)),
			zap.Int("misses", len(missInputs)),
		)
	}
	return out, nil
}
