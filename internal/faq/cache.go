package faq

import (
	"math"
	"sync"
)

// Index is an embedded dataset ready for similarity search.
type Index struct {
	vectors [][]float32
	answers []string
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.answers)
}

// Best returns the answer closest to query and its cosine similarity.
func (idx *Index) Best(query []float32) (string, float64) {
	best, bestScore := -1, math.Inf(-1)
	for i, v := range idx.vectors {
		if score := cosineSimilarity(query, v); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return "", 0
	}
	return idx.answers[best], bestScore
}

// EmbeddingCache holds the index for exactly one dataset version. Asking for any other
// version is a miss, so activating a new dataset invalidates the cache implicitly.
type EmbeddingCache struct {
	mu      sync.RWMutex
	version string
	index   *Index
}

// NewEmbeddingCache returns an empty cache.
func NewEmbeddingCache() *EmbeddingCache {
	return &EmbeddingCache{}
}

// Get returns the index if it was built for version.
func (c *EmbeddingCache) Get(version string) (*Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil || c.version != version {
		return nil, false
	}
	return c.index, true
}

// Put replaces the cached index.
func (c *EmbeddingCache) Put(version string, idx *Index) {
	c.mu.Lock()
	c.version = version
	c.index = idx
	c.mu.Unlock()
}

// Invalidate drops the cached index.
func (c *EmbeddingCache) Invalidate() {
	c.mu.Lock()
	c.version = ""
	c.index = nil
	c.mu.Unlock()
}

// Version reports which dataset version is cached, or "".
func (c *EmbeddingCache) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
