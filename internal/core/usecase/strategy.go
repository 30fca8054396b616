package usecase

import (
	"fmt"
	"math"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// StrategySelector resolves the requested strategy into an effective strategy
// plus the SearchConfig the fusion step will score with.
type StrategySelector struct {
	defaults domain.SearchConfig
}

func NewStrategySelector(defaults domain.SearchConfig) (*StrategySelector, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &StrategySelector{defaults: defaults}, nil
}

// Select validates the override config, passes fixed strategies through and
// derives adaptive weights from the processed query. An empty strategy
// defaults to adaptive.
func (s *StrategySelector) Select(
	pq domain.ProcessedQuery,
	requested domain.SearchStrategy,
	override *domain.SearchConfig,
) (domain.SearchStrategy, domain.SearchConfig, error) {
	cfg := s.defaults
	if override != nil {
		if err := override.Validate(); err != nil {
			return "", domain.SearchConfig{}, err
		}
		cfg = *override
	}

	if requested == "" {
		requested = domain.StrategyAdaptive
	}

	switch requested {
	case domain.StrategyVectorOnly, domain.StrategyKeywordOnly, domain.StrategyHybrid:
		return requested, cfg, nil
	case domain.StrategyAdaptive:
		return domain.StrategyAdaptive, s.adaptConfig(pq, cfg), nil
	default:
		return "", domain.SearchConfig{}, domain.WrapError(domain.ErrInvalidInput, "select strategy",
			fmt.Errorf("unknown search strategy %q", requested))
	}
}

// adaptConfig picks weights from the query signals. Intent sets the base
// profile; vector weight then grows with domain-term density and keyword
// weight with the number of comparable entities. Both adjustments are
// monotonic and weights stay non-negative.
func (s *StrategySelector) adaptConfig(pq domain.ProcessedQuery, base domain.SearchConfig) domain.SearchConfig {
	cfg := base

	switch pq.Intent {
	case domain.IntentCalculate:
		// Amount lookups live or die on exact figures in the text.
		cfg.VectorWeight = 0.3
		cfg.KeywordWeight = 0.7
		cfg.SimilarityThreshold = 0.6
	case domain.IntentCompare:
		cfg.VectorWeight = 0.5
		cfg.KeywordWeight = 0.5
		cfg.SimilarityThreshold = 0.7
	case domain.IntentSearch:
		cfg.VectorWeight = 0.8
		cfg.KeywordWeight = 0.2
		cfg.SimilarityThreshold = 0.75
	case domain.IntentExplain, domain.IntentApply, domain.IntentModify, domain.IntentUnknown:
		// Keep the caller profile.
	}

	if len(pq.Tokens) > 0 {
		density := float64(len(pq.DomainTerms)) / float64(len(pq.Tokens))
		cfg.VectorWeight += 0.2 * math.Min(density, 1.0)
	}

	comparable := comparableEntities(pq)
	if pq.Intent == domain.IntentCompare || comparable >= 2 {
		cfg.KeywordWeight += 0.05 * math.Min(float64(comparable), 4.0)
	}

	// Busy queries get a relaxed vector threshold so recall does not collapse.
	if len(pq.Keywords)+len(pq.DomainTerms) > 5 {
		cfg.SimilarityThreshold *= 0.9
	}

	return cfg
}

// comparableEntities counts the concrete items a comparison or calculation
// could range over: explicit amounts and ages.
func comparableEntities(pq domain.ProcessedQuery) int {
	return len(pq.Entities["amounts"]) + len(pq.Entities["ages"])
}
