package usecase

import (
	"testing"
	"time"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

func TestCacheKeySensitiveToEveryConfigField(t *testing.T) {
	base := domain.DefaultSearchConfig()
	filter := domain.SearchFilter{}
	baseKey := CacheKey("암 보험", domain.StrategyHybrid, base, filter)

	mutations := []func(*domain.SearchConfig){
		func(c *domain.SearchConfig) { c.VectorWeight = 0.71 },
		func(c *domain.SearchConfig) { c.KeywordWeight = 0.31 },
		func(c *domain.SearchConfig) { c.SimilarityThreshold = 0.69 },
		func(c *domain.SearchConfig) { c.TopK = 11 },
		func(c *domain.SearchConfig) { c.MaxTokens = 4001 },
		func(c *domain.SearchConfig) { c.CandidateLimit = 51 },
	}
	for i, mutate := range mutations {
		cfg := base
		mutate(&cfg)
		if CacheKey("암 보험", domain.StrategyHybrid, cfg, filter) == baseKey {
			t.Errorf("mutation %d: expected a different cache key", i)
		}
	}

	if CacheKey("암 보험", domain.StrategyVectorOnly, base, filter) == baseKey {
		t.Error("expected strategy to change the cache key")
	}
	if CacheKey("실손 보험", domain.StrategyHybrid, base, filter) == baseKey {
		t.Error("expected query to change the cache key")
	}
	if CacheKey("암 보험", domain.StrategyHybrid, base, domain.SearchFilter{SecurityLevel: "internal"}) == baseKey {
		t.Error("expected filter to change the cache key")
	}
}

func TestCacheKeyIgnoresPolicyIDOrder(t *testing.T) {
	cfg := domain.DefaultSearchConfig()
	a := CacheKey("암", domain.StrategyHybrid, cfg, domain.SearchFilter{PolicyIDs: []int64{3, 1, 2}})
	b := CacheKey("암", domain.StrategyHybrid, cfg, domain.SearchFilter{PolicyIDs: []int64{1, 2, 3}})
	if a != b {
		t.Fatal("expected policy id order not to affect the cache key")
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	cache := NewResultCache(4, time.Minute)

	if _, ok := cache.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	stored := []domain.SearchResult{{EmbeddingID: "1", ChunkText: "본문", FinalScore: 0.9}}
	cache.Put("key", stored)

	got, ok := cache.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 1 || got[0].EmbeddingID != "1" {
		t.Fatalf("unexpected cached results: %+v", got)
	}

	// Mutating the returned slice must not poison the cache.
	got[0].FinalScore = 0
	again, _ := cache.Get("key")
	if again[0].FinalScore != 0.9 {
		t.Fatal("cache entry was mutated through a returned copy")
	}
}

func TestResultCachePurge(t *testing.T) {
	cache := NewResultCache(4, time.Minute)
	cache.Put("a", nil)
	cache.Put("b", nil)
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}

	cache.Purge()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after purge, got %d", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Fatal("expected miss after purge")
	}
}
