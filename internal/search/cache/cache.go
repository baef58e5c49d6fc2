// Package cache stores ranked search responses in Redis. Keys are scoped to
// the fingerprint of the index that produced them, so a rebuilt snapshot
// never serves stale rankings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/problem-search/internal/search/index"
	pkgredis "github.com/Adithya-Monish-Kumar-K/problem-search/pkg/redis"
)

const keyPrefix = "search:"

// Store is the key-value backend. *pkgredis.Client satisfies it; Get must
// return pkgredis.ErrMiss for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Entry is a cached search response: the full match count plus the
// truncated result list.
type Entry struct {
	TotalMatches int                  `json:"total_matches"`
	Results      []index.ScoredRecord `json:"results"`
}

// Stats reports hit and miss counters since start.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// QueryCache is safe for concurrent use. Backend failures are logged and
// reported as misses.
type QueryCache struct {
	store       Store
	ttl         time.Duration
	fingerprint string
	group       singleflight.Group
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New returns a cache for responses produced by the index identified by
// fingerprint.
func New(store Store, ttl time.Duration, fingerprint string) *QueryCache {
	return &QueryCache{
		store:       store,
		ttl:         ttl,
		fingerprint: fingerprint,
		logger:      slog.Default().With("component", "query-cache"),
	}
}

// Get looks up a response for the normalized query and filter.
func (c *QueryCache) Get(ctx context.Context, normalized string, f index.Filter) (*Entry, bool) {
	key := c.Key(normalized, f)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", normalized, "key", key)
	return &entry, true
}

// Set stores entry for the normalized query and filter.
func (c *QueryCache) Set(ctx context.Context, normalized string, f index.Filter, entry *Entry) {
	key := c.Key(normalized, f)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response or computes, stores and returns
// it. Concurrent misses on the same key share one computation. The boolean
// reports a cache hit.
func (c *QueryCache) GetOrCompute(ctx context.Context, normalized string, f index.Filter, compute func() *Entry) (*Entry, bool) {
	if entry, ok := c.Get(ctx, normalized, f); ok {
		return entry, true
	}
	key := c.Key(normalized, f)
	val, _, _ := c.group.Do(key, func() (any, error) {
		entry := compute()
		c.Set(ctx, normalized, f, entry)
		return entry, nil
	})
	return val.(*Entry), false
}

// Invalidate removes every cached response.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns the hit and miss counters.
func (c *QueryCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Key builds the storage key for a normalized query and filter. The fields
// are hashed as a JSON array so no separator inside a client-supplied filter
// value can make two distinct tuples collide.
func (c *QueryCache) Key(normalized string, f index.Filter) string {
	raw, _ := json.Marshal([4]string{c.fingerprint, normalized, f.Difficulty, f.Language})
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}
