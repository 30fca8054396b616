package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// maxSearchKeywords caps how many keywords feed the ILIKE scoring so the
// query plan stays bounded on very wordy queries.
const maxSearchKeywords = 5

// KeywordRepository scores policy chunks by lexical keyword hits. It
// implements ports.KeywordRetriever.
type KeywordRepository struct {
	db *sql.DB
}

func NewKeywordRepository(db *sql.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

func (r *KeywordRepository) Search(
	ctx context.Context,
	keywords []string,
	limit int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	used := usableKeywords(keywords)
	if len(used) == 0 || limit < 1 {
		return nil, nil
	}

	query, args := buildKeywordQuery(used, limit, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search query: %w", err)
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var result domain.SearchResult
		var hits int
		err := rows.Scan(
			&result.EmbeddingID, &result.PolicyID, &result.ChunkIndex, &result.ChunkText,
			&result.Model, &result.CreatedAt,
			&result.ProductName, &result.Company, &result.Category,
			&hits,
		)
		if err != nil {
			return nil, fmt.Errorf("scan keyword result: %w", err)
		}
		result.KeywordScore = float64(hits) / float64(len(used))
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword results: %w", err)
	}
	return out, nil
}

// buildKeywordQuery assembles the hit-counting query with one positional
// placeholder per keyword pattern, then the optional filter terms and limit.
func buildKeywordQuery(keywords []string, limit int, filter domain.SearchFilter) (string, []any) {
	args := make([]any, 0, len(keywords)+len(filter.PolicyIDs)+2)

	hitTerms := make([]string, 0, len(keywords))
	matchTerms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		args = append(args, "%"+escapeLikePattern(kw)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		hitTerms = append(hitTerms, fmt.Sprintf("CASE WHEN e.chunk_text ILIKE %s THEN 1 ELSE 0 END", placeholder))
		matchTerms = append(matchTerms, fmt.Sprintf("e.chunk_text ILIKE %s", placeholder))
	}

	var b strings.Builder
	b.WriteString(`
SELECT e.embedding_id, e.policy_id, e.chunk_index, e.chunk_text, e.model, e.created_at,
	p.product_name, p.company, p.category,
	(`)
	b.WriteString(strings.Join(hitTerms, " + "))
	b.WriteString(`) AS keyword_hits
FROM policy_chunks e
JOIN policies p ON p.id = e.policy_id
WHERE (`)
	b.WriteString(strings.Join(matchTerms, " OR "))
	b.WriteString(`)`)

	if len(filter.PolicyIDs) > 0 {
		placeholders := make([]string, 0, len(filter.PolicyIDs))
		for _, id := range filter.PolicyIDs {
			args = append(args, id)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		b.WriteString("\nAND e.policy_id IN (")
		b.WriteString(strings.Join(placeholders, ","))
		b.WriteString(")")
	}
	if filter.SecurityLevel != "" {
		args = append(args, filter.SecurityLevel)
		fmt.Fprintf(&b, "\nAND p.security_level = $%d", len(args))
	}

	args = append(args, limit)
	fmt.Fprintf(&b, "\nORDER BY keyword_hits DESC, e.policy_id, e.chunk_index\nLIMIT $%d", len(args))

	return b.String(), args
}

func usableKeywords(keywords []string) []string {
	out := make([]string, 0, maxSearchKeywords)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		out = append(out, kw)
		if len(out) == maxSearchKeywords {
			break
		}
	}
	return out
}

// escapeLikePattern neutralizes ILIKE metacharacters in user-derived terms.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
