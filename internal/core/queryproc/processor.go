// Package queryproc turns raw Korean insurance queries into the structured,
// intent-tagged representation the retrieval engine works with. Everything
// here is pure in-memory computation: static lexicon lookups, token-level
// rules and precompiled patterns.
package queryproc

import (
	"math"
	"strings"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

type Processor struct {
	lexicon *Lexicon
}

func NewProcessor(lexicon *Lexicon) *Processor {
	if lexicon == nil {
		lexicon = NewLexicon()
	}
	return &Processor{lexicon: lexicon}
}

// Preprocess never fails: malformed or empty input yields a ProcessedQuery
// with empty token sets and intent UNKNOWN.
func (p *Processor) Preprocess(raw string) domain.ProcessedQuery {
	normalized := Normalize(raw)
	if normalized == "" {
		return domain.ProcessedQuery{
			Original:   raw,
			Intent:     domain.IntentUnknown,
			QueryType:  "statement",
			Entities:   map[string][]string{},
			Complexity: domain.QueryComplexity{Level: domain.ComplexitySimple},
		}
	}

	tokens := Tokenize(normalized)
	keywords := ExtractKeywords(tokens)
	domainTerms := p.lexicon.MatchTerms(normalized)
	entities := extractEntities(raw, normalized, p.lexicon)
	intent, confidence := classifyIntent(normalized, tokens)

	pq := domain.ProcessedQuery{
		Original:    raw,
		Normalized:  normalized,
		Tokens:      tokens,
		Keywords:    keywords,
		DomainTerms: domainTerms,
		Entities:    entities,
		Intent:      intent,
		Confidence:  confidence,
		QueryType:   deriveQueryType(normalized, intent),
	}
	pq.Complexity = complexityOf(pq)
	return pq
}

// Lexicon exposes the dictionary for callers that tag text directly.
func (p *Processor) Lexicon() *Lexicon {
	return p.lexicon
}

// complexityOf maps keyword, domain-term and entity density plus intent
// uncertainty onto a fixed ordinal scale.
func complexityOf(pq domain.ProcessedQuery) domain.QueryComplexity {
	entities := entityCount(pq.Entities)
	score := 0.5*float64(len(pq.Keywords)) +
		1.0*float64(len(pq.DomainTerms)) +
		0.8*float64(entities) +
		2.0*(1.0-pq.Confidence)

	var level domain.ComplexityLevel
	switch {
	case score < 2:
		level = domain.ComplexitySimple
	case score < 5:
		level = domain.ComplexityModerate
	case score < 8:
		level = domain.ComplexityComplex
	default:
		level = domain.ComplexityVeryComplex
	}

	return domain.QueryComplexity{
		Level:           level,
		Score:           math.Round(score*100) / 100,
		TokenCount:      len(pq.Tokens),
		DomainTermCount: len(pq.DomainTerms),
		EntityCount:     entities,
	}
}

// SearchKeywords returns the terms handed to the keyword retriever: content
// keywords first, then matched domain terms, falling back to raw tokens for
// queries with no content words.
func SearchKeywords(pq domain.ProcessedQuery) []string {
	merged := make([]string, 0, len(pq.Keywords)+len(pq.DomainTerms))
	seen := make(map[string]struct{}, cap(merged))
	for _, lists := range [][]string{pq.Keywords, pq.DomainTerms} {
		for _, kw := range lists {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			merged = append(merged, kw)
		}
	}
	if len(merged) == 0 {
		return append([]string(nil), pq.Tokens...)
	}
	return merged
}

// EmbeddingText composes the text embedded for vector search: the original
// query reinforced with its canonical domain terms.
func EmbeddingText(pq domain.ProcessedQuery) string {
	if len(pq.DomainTerms) == 0 {
		return pq.Original
	}
	return pq.Original + " " + strings.Join(pq.DomainTerms, " ")
}
