// Package cache provides an in-memory LRU decorator for embedding services.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService caches vectors by text. Identical texts within one batch
// are embedded once.
type EmbeddingService struct {
	next  driven.EmbeddingService
	cache *lru.Cache[string, []float32]
}

// New wraps next with a cache holding up to size vectors.
func New(next driven.EmbeddingService, size int) (*EmbeddingService, error) {
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &EmbeddingService{next: next, cache: c}, nil
}

// Embed returns the cached vector for text or embeds it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if v, ok := s.cache.Get(key); ok {
		return cloneVector(v), nil
	}
	v, err := s.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.store(key, v)
	return v, nil
}

// EmbedBatch embeds only the texts missing from the cache.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var order []string
	for i, text := range texts {
		key := cacheKey(text)
		if v, ok := s.cache.Get(key); ok {
			results[i] = cloneVector(v)
			continue
		}
		if _, seen := missing[text]; !seen {
			order = append(order, text)
		}
		missing[text] = append(missing[text], i)
	}
	if len(order) == 0 {
		return results, nil
	}

	embedded, err := s.next.EmbedBatch(ctx, order)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(order) {
		return nil, fmt.Errorf("received %d embeddings for %d texts", len(embedded), len(order))
	}
	for i, text := range order {
		for _, idx := range missing[text] {
			results[idx] = cloneVector(embedded[i])
		}
		s.store(cacheKey(text), embedded[i])
	}
	return results, nil
}

func (s *EmbeddingService) store(key string, v []float32) {
	if len(v) == 0 {
		return
	}
	s.cache.Add(key, cloneVector(v))
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int { return s.cache.Len() }

// Dimensions delegates to the wrapped service.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName delegates to the wrapped service.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping delegates to the wrapped service.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close purges the cache and closes the wrapped service.
func (s *EmbeddingService) Close() error {
	s.cache.Purge()
	return s.next.Close()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	dst := make([]float32, len(src))
	copy(dst, src)
	return dst
}
