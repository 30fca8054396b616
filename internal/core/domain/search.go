package domain

import (
	"fmt"
	"time"
)

// SearchStrategy selects how the two retrieval backends are combined.
type SearchStrategy string

const (
	StrategyVectorOnly  SearchStrategy = "vector_only"
	StrategyKeywordOnly SearchStrategy = "keyword_only"
	StrategyHybrid      SearchStrategy = "hybrid"
	StrategyAdaptive    SearchStrategy = "adaptive"
)

// SearchStatus describes how a completed request was served.
type SearchStatus string

const (
	SearchStatusOK          SearchStatus = "ok"
	SearchStatusDegraded    SearchStatus = "degraded"
	SearchStatusUnavailable SearchStatus = "unavailable"
)

// SearchConfig carries the scoring weights and result limits for one search.
// The weights are linear combination coefficients and need not sum to 1.
type SearchConfig struct {
	VectorWeight        float64 `json:"vector_weight"`
	KeywordWeight       float64 `json:"keyword_weight"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	TopK                int     `json:"top_k"`
	MaxTokens           int     `json:"max_tokens"`
	CandidateLimit      int     `json:"candidate_limit"`
}

// DefaultSearchConfig mirrors the service defaults for hybrid retrieval.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		VectorWeight:        0.7,
		KeywordWeight:       0.3,
		SimilarityThreshold: 0.7,
		TopK:                10,
		MaxTokens:           4000,
		CandidateLimit:      50,
	}
}

// Validate rejects configs instead of silently clamping them.
func (c SearchConfig) Validate() error {
	if c.VectorWeight < 0 {
		return WrapError(ErrInvalidConfig, "validate config", fmt.Errorf("vector_weight must be non-negative, got %v", c.VectorWeight))
	}
	if c.KeywordWeight < 0 {
		return WrapError(ErrInvalidConfig, "validate config", fmt.Errorf("keyword_weight must be non-negative, got %v", c.KeywordWeight))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return WrapError(ErrInvalidConfig, "validate config", fmt.Errorf("similarity_threshold must be in [0,1], got %v", c.SimilarityThreshold))
	}
	if c.TopK < 1 {
		return WrapError(ErrInvalidConfig, "validate config", fmt.Errorf("top_k must be at least 1, got %d", c.TopK))
	}
	if c.MaxTokens < 1 {
		return WrapError(ErrInvalidConfig, "validate config", fmt.Errorf("max_tokens must be at least 1, got %d", c.MaxTokens))
	}
	if c.CandidateLimit < 1 {
		return WrapError(ErrInvalidConfig, "validate config", fmt.Errorf("candidate_limit must be at least 1, got %d", c.CandidateLimit))
	}
	return nil
}

// SearchFilter restricts retrieval to a subset of the corpus.
type SearchFilter struct {
	PolicyIDs     []int64 `json:"policy_ids,omitempty"`
	SecurityLevel string  `json:"security_level,omitempty"`
}

// SearchResult is a single retrieved chunk with its scoring breakdown.
type SearchResult struct {
	EmbeddingID     string    `json:"embedding_id"`
	PolicyID        int64     `json:"policy_id"`
	ChunkText       string    `json:"chunk_text"`
	ChunkIndex      int       `json:"chunk_index"`
	ProductName     string    `json:"product_name,omitempty"`
	Company         string    `json:"company,omitempty"`
	Category        string    `json:"category,omitempty"`
	VectorScore     float64   `json:"vector_score"`
	KeywordScore    float64   `json:"keyword_score"`
	HybridScore     float64   `json:"hybrid_score"`
	FinalScore      float64   `json:"final_score"`
	Model           string    `json:"model,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	RelevanceReason string    `json:"relevance_reason,omitempty"`
}

// PolicyMetadata enriches results with product-level attributes.
type PolicyMetadata struct {
	ProductName string `json:"product_name"`
	Company     string `json:"company"`
	Category    string `json:"category"`
}

// PerformanceStats is the rolling view over completed searches.
type PerformanceStats struct {
	SearchCount       int64   `json:"search_count"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	AvgSearchQuality  float64 `json:"avg_search_quality"`
	CacheHitRatio     float64 `json:"cache_hit_ratio"`
	CacheSize         int     `json:"cache_size"`
}

// SearchObservation is the per-request record published for offline analysis.
type SearchObservation struct {
	RequestID   string         `json:"request_id"`
	Intent      QueryIntent    `json:"intent"`
	Strategy    SearchStrategy `json:"strategy"`
	Status      SearchStatus   `json:"status"`
	ResultCount int            `json:"result_count"`
	DurationMs  float64        `json:"duration_ms"`
	Quality     float64        `json:"quality"`
	CacheHit    bool           `json:"cache_hit"`
}
