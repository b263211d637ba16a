package rag

import (
	"context"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

var errNoEmbedder = errors.New("no embedding provider configured")

// CachedEmbedder memoises query embeddings keyed by whitespace- and
// case-normalised text.
type CachedEmbedder struct {
	inner  Embedder
	cache  *lru.Cache
	logger *zap.Logger
}

func NewCachedEmbedder(inner Embedder, size int, logger *zap.Logger) (*CachedEmbedder, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache, logger: logger}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if v, ok := c.cache.Get(key); ok {
		return v.([]float32), nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errors.New("embedding provider returned an empty vector")
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// Len reports how many embeddings are cached.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }
