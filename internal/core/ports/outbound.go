package ports

import (
	"context"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// EmbeddingProvider turns query text into a vector for similarity search.
type EmbeddingProvider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorRetriever returns semantically similar chunks, scored in [0,1].
type VectorRetriever interface {
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.SearchResult, error)
}

// KeywordRetriever returns lexically matching chunks, scored in [0,1].
type KeywordRetriever interface {
	Search(ctx context.Context, keywords []string, limit int, filter domain.SearchFilter) ([]domain.SearchResult, error)
}

// PolicyMetadataStore resolves product attributes for result enrichment.
type PolicyMetadataStore interface {
	Lookup(ctx context.Context, policyIDs []int64) (map[int64]domain.PolicyMetadata, error)
}

// SearchEventPublisher receives one observation per completed request.
// Implementations must be cheap and must never fail the request.
type SearchEventPublisher interface {
	PublishSearchObserved(ctx context.Context, obs domain.SearchObservation) error
}
