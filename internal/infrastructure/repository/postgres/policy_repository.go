package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// PolicyRepository serves product metadata for result enrichment. It
// implements ports.PolicyMetadataStore.
type PolicyRepository struct {
	db *sql.DB
}

func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) Lookup(ctx context.Context, policyIDs []int64) (map[int64]domain.PolicyMetadata, error) {
	if len(policyIDs) == 0 {
		return map[int64]domain.PolicyMetadata{}, nil
	}

	placeholders := make([]string, 0, len(policyIDs))
	args := make([]any, 0, len(policyIDs))
	for _, id := range policyIDs {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`
SELECT id, product_name, company, category
FROM policies
WHERE id IN (%s)
`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("policy metadata query: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.PolicyMetadata, len(policyIDs))
	for rows.Next() {
		var id int64
		var meta domain.PolicyMetadata
		if err := rows.Scan(&id, &meta.ProductName, &meta.Company, &meta.Category); err != nil {
			return nil, fmt.Errorf("scan policy metadata: %w", err)
		}
		out[id] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy metadata: %w", err)
	}
	return out, nil
}
