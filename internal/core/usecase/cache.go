package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// ResultCache holds recent search results keyed by the full request identity:
// normalized query, effective strategy, scoring config and filter. Entries
// expire on a TTL and the LRU bound caps memory.
type ResultCache struct {
	lru *expirable.LRU[string, []domain.SearchResult]
}

func NewResultCache(size int, ttl time.Duration) *ResultCache {
	if size < 1 {
		size = 1
	}
	return &ResultCache{lru: expirable.NewLRU[string, []domain.SearchResult](size, nil, ttl)}
}

// Get returns a copy of the cached results so callers cannot mutate the
// cached slice in place.
func (c *ResultCache) Get(key string) ([]domain.SearchResult, bool) {
	results, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	return out, true
}

func (c *ResultCache) Put(key string, results []domain.SearchResult) {
	stored := make([]domain.SearchResult, len(results))
	copy(stored, results)
	c.lru.Add(key, stored)
}

func (c *ResultCache) Purge() {
	c.lru.Purge()
}

func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// CacheKey digests every input that changes the result set. Weights and
// thresholds are rendered at fixed precision so equal configs always produce
// the same key regardless of how they were computed.
func CacheKey(normalized string, strategy domain.SearchStrategy, cfg domain.SearchConfig, filter domain.SearchFilter) string {
	var b strings.Builder
	b.WriteString(normalized)
	b.WriteByte('|')
	b.WriteString(string(strategy))
	fmt.Fprintf(&b, "|%.6f|%.6f|%.6f|%d|%d|%d",
		cfg.VectorWeight, cfg.KeywordWeight, cfg.SimilarityThreshold,
		cfg.TopK, cfg.MaxTokens, cfg.CandidateLimit)

	if len(filter.PolicyIDs) > 0 {
		ids := make([]int64, len(filter.PolicyIDs))
		copy(ids, filter.PolicyIDs)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		b.WriteByte('|')
		for i, id := range ids {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatInt(id, 10))
		}
	}
	if filter.SecurityLevel != "" {
		b.WriteByte('|')
		b.WriteString(filter.SecurityLevel)
	}

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}
