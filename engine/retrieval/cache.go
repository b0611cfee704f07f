package retrieval

import (
	"context"
	"crypto/sha256"
	"sync"
)

// embedCache memoizes catalog embeddings keyed by a content hash of the
// embedded text. Entries are immutable once stored; population of each entry
// happens at most once, concurrent callers for the same key wait for the
// first computation instead of issuing duplicate upstream calls.
type embedCache struct {
	mu      sync.Mutex
	entries map[[32]byte]*cacheEntry
}

type cacheEntry struct {
	done chan struct{}
	vec  []float64
	err  error
}

func newEmbedCache() *embedCache {
	return &embedCache{entries: make(map[[32]byte]*cacheEntry)}
}

func (c *embedCache) get(ctx context.Context, text string, embed func(context.Context, string) ([]float64, error)) ([]float64, error) {
	key := sha256.Sum256([]byte(text))

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[key] = e
		c.mu.Unlock()

		e.vec, e.err = embed(ctx, text)
		if e.err != nil {
			// Failed computations are not cached; the next caller retries.
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		close(e.done)
		return e.vec, e.err
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.vec, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
