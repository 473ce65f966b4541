package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached memoizes Analyze by input text. Repeated chapter texts (empty
// chapters, formulaic lemmata) are analyzed once per run.
type Cached struct {
	inner  Analyzer
	cache  *cache.Cache
	hits   int
	misses int
}

// NewCached wraps an analyzer. Entries never expire within a run.
func NewCached(inner Analyzer) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (c *Cached) Analyze(ctx context.Context, text string) (Doc, error) {
	key := cacheKey(c.inner.Config(), text)
	if v, ok := c.cache.Get(key); ok {
		c.hits++
		return cloneDoc(v.(Doc)), nil
	}
	c.misses++

	doc, err := c.inner.Analyze(ctx, text)
	if err != nil {
		return Doc{}, err
	}
	c.cache.Set(key, cloneDoc(doc), cache.NoExpiration)
	return doc, nil
}

func (c *Cached) Config() Config {
	return c.inner.Config()
}

// Stats returns hit and miss counts.
func (c *Cached) Stats() (hits, misses int) {
	return c.hits, c.misses
}

func (c *Cached) Close() error {
	c.cache.Flush()
	return c.inner.Close()
}

func cacheKey(cfg Config, text string) string {
	sum := sha256.Sum256([]byte(cfg.String() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func cloneDoc(d Doc) Doc {
	tokens := make([]Token, len(d.Tokens))
	copy(tokens, d.Tokens)
	return Doc{Tokens: tokens}
}
