package usecase

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// FusionEngine merges the candidate lists of both retrieval backends into a
// single deduplicated, budgeted, deterministically ranked result set.
type FusionEngine struct {
	logger *slog.Logger
}

func NewFusionEngine(logger *slog.Logger) *FusionEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &FusionEngine{logger: logger}
}

type mergedCandidate struct {
	result     domain.SearchResult
	fromVector bool
}

// Combine unions candidates by embedding ID, computes hybrid scores, drops
// below-threshold vector candidates, deduplicates on (policy, chunk), ranks,
// applies the token budget and truncates to top-K.
func (f *FusionEngine) Combine(
	vectorCandidates, keywordCandidates []domain.SearchResult,
	cfg domain.SearchConfig,
	pq domain.ProcessedQuery,
) []domain.SearchResult {
	merged := make(map[string]mergedCandidate, len(vectorCandidates)+len(keywordCandidates))

	// The threshold guards the vector list only: a chunk that fails it can
	// still surface through keyword evidence with vector score 0.
	for _, cand := range vectorCandidates {
		if !f.validCandidate(cand, "vector") {
			continue
		}
		if cand.VectorScore < cfg.SimilarityThreshold {
			continue
		}
		merged[cand.EmbeddingID] = mergedCandidate{result: cand, fromVector: true}
	}

	for _, cand := range keywordCandidates {
		if !f.validCandidate(cand, "keyword") {
			continue
		}
		existing, ok := merged[cand.EmbeddingID]
		if !ok {
			cand.VectorScore = 0
			merged[cand.EmbeddingID] = mergedCandidate{result: cand}
			continue
		}
		existing.result.KeywordScore = cand.KeywordScore
		merged[cand.EmbeddingID] = existing
	}

	combined := make([]domain.SearchResult, 0, len(merged))
	for _, cand := range merged {
		r := cand.result
		if !cand.fromVector {
			r.VectorScore = 0
		}
		r.HybridScore = cfg.VectorWeight*r.VectorScore + cfg.KeywordWeight*r.KeywordScore
		r.FinalScore = r.HybridScore
		combined = append(combined, r)
	}

	combined = dedupeByChunk(combined)
	sortResults(combined)
	combined = applyTokenBudget(combined, cfg.MaxTokens)
	if len(combined) > cfg.TopK {
		combined = combined[:cfg.TopK]
	}

	for i := range combined {
		combined[i].RelevanceReason = relevanceReason(combined[i], pq)
	}
	return combined
}

func (f *FusionEngine) validCandidate(cand domain.SearchResult, origin string) bool {
	if cand.EmbeddingID == "" || cand.ChunkText == "" {
		f.logger.Warn("dropping malformed candidate",
			"origin", origin,
			"embedding_id", cand.EmbeddingID,
			"policy_id", cand.PolicyID,
			"chunk_index", cand.ChunkIndex,
		)
		return false
	}
	return true
}

// dedupeByChunk keeps the best-scored candidate per (policy, chunk) identity
// key. Near-duplicate text under different chunk indexes stays distinct.
func dedupeByChunk(results []domain.SearchResult) []domain.SearchResult {
	type chunkKey struct {
		policyID   int64
		chunkIndex int
	}
	best := make(map[chunkKey]domain.SearchResult, len(results))
	for _, r := range results {
		key := chunkKey{r.PolicyID, r.ChunkIndex}
		current, ok := best[key]
		if !ok || lessResult(r, current) {
			best[key] = r
		}
	}
	out := make([]domain.SearchResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return out
}

func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return lessResult(results[i], results[j])
	})
}

// lessResult is the strict ranking order: hybrid score desc, vector score
// desc, chunk index asc, policy id asc. The chain is a total order so
// repeated searches return identical orderings.
func lessResult(a, b domain.SearchResult) bool {
	if a.HybridScore != b.HybridScore {
		return a.HybridScore > b.HybridScore
	}
	if a.VectorScore != b.VectorScore {
		return a.VectorScore > b.VectorScore
	}
	if a.ChunkIndex != b.ChunkIndex {
		return a.ChunkIndex < b.ChunkIndex
	}
	return a.PolicyID < b.PolicyID
}

// applyTokenBudget walks the ranked list and stops before the candidate that
// would overflow maxTokens; nothing is truncated mid-text.
func applyTokenBudget(results []domain.SearchResult, maxTokens int) []domain.SearchResult {
	out := results[:0]
	total := 0
	for _, r := range results {
		estimate := estimateTokens(r.ChunkText)
		if total+estimate > maxTokens {
			break
		}
		total += estimate
		out = append(out, r)
	}
	return out
}

// estimateTokens approximates Korean token counts as half the rune count,
// the same ratio used when the chunks were budgeted at indexing time.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 2
	if n < 1 {
		return 1
	}
	return n
}

func relevanceReason(r domain.SearchResult, pq domain.ProcessedQuery) string {
	var reasons []string
	if r.VectorScore > 0.8 {
		reasons = append(reasons, "high semantic similarity")
	}
	if r.KeywordScore >= 0.7 {
		reasons = append(reasons, "direct keyword match")
	}
	if terms := containedTerms(r.ChunkText, pq.DomainTerms); len(terms) > 0 {
		reasons = append(reasons, fmt.Sprintf("matched domain terms: %s", strings.Join(terms, ", ")))
	}
	if len(reasons) == 0 {
		if pq.Intent != domain.IntentUnknown {
			return fmt.Sprintf("related to %s intent", pq.Intent)
		}
		return "general relevance"
	}
	return strings.Join(reasons, "; ")
}

func containedTerms(text string, terms []string) []string {
	var out []string
	for _, term := range terms {
		if strings.Contains(text, term) {
			out = append(out, term)
		}
	}
	return out
}
