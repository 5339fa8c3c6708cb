// Package embedding decorates an embedding provider with the bounded
// query-text cache. Embeddings are tenant-agnostic, so the cache is keyed on
// the text alone.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/brianjwalters/graphrag-service/internal/cache"
)

// Provider is the consumer interface for the upstream embedding source
type Provider interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Cached is a caching decorator around an embedding provider
type Cached struct {
	inner  Provider
	store  *cache.Cache[[]float32]
	logger *zap.Logger
}

// NewCached creates the caching decorator
func NewCached(inner Provider, store *cache.Cache[[]float32], logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		inner:  inner,
		store:  store,
		logger: logger,
	}
}

// GetEmbedding returns a cached embedding or calls the inner provider.
// Provider failures propagate unchanged; cache misses never error.
func (c *Cached) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	if vec, ok := c.store.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.GetEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	c.store.Set(key, vec)
	c.logger.Debug("cached query embedding", zap.Int("dimensions", len(vec)))
	return vec, nil
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
