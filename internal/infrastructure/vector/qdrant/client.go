package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dawoncorp/policysearch/internal/core/domain"
	"github.com/dawoncorp/policysearch/internal/infrastructure/resilience"
)

// Retriever runs semantic search against a Qdrant collection of policy chunk
// embeddings. It implements ports.VectorRetriever.
type Retriever struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, collection string, executor *resilience.Executor) *Retriever {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Retriever{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

func (r *Retriever) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	var results []domain.SearchResult
	err := r.executor.Execute(ctx, "qdrant_search", func(ctx context.Context) error {
		found, err := r.search(ctx, queryVector, limit, filter)
		if err != nil {
			return err
		}
		results = found
		return nil
	}, classifyQdrantError)
	return results, wrapTemporaryIfNeeded("qdrant search", err)
}

func (r *Retriever) search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.SearchResult, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if clauses := filterClauses(filter); len(clauses) > 0 {
		reqBody["filter"] = map[string]any{"must": clauses}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", r.baseURL, r.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newHTTPStatusError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.SearchResult, 0, len(searchResp.Result))
	for _, point := range searchResp.Result {
		out = append(out, domain.SearchResult{
			EmbeddingID: fmt.Sprintf("%v", point.ID),
			PolicyID:    getIntPayload(point.Payload, "policy_id"),
			ChunkIndex:  int(getIntPayload(point.Payload, "chunk_index")),
			ChunkText:   getStringPayload(point.Payload, "text"),
			ProductName: getStringPayload(point.Payload, "product_name"),
			Company:     getStringPayload(point.Payload, "company"),
			Category:    getStringPayload(point.Payload, "category"),
			Model:       getStringPayload(point.Payload, "model"),
			CreatedAt:   getTimePayload(point.Payload, "created_at"),
			VectorScore: point.Score,
		})
	}
	return out, nil
}

func filterClauses(filter domain.SearchFilter) []map[string]any {
	var clauses []map[string]any
	if len(filter.PolicyIDs) > 0 {
		clauses = append(clauses, map[string]any{
			"key":   "policy_id",
			"match": map[string]any{"any": filter.PolicyIDs},
		})
	}
	if filter.SecurityLevel != "" {
		clauses = append(clauses, map[string]any{
			"key":   "security_level",
			"match": map[string]any{"value": filter.SecurityLevel},
		})
	}
	return clauses
}

func newHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Qdrant payloads come back through encoding/json, so integer payload values
// arrive as float64.
func getIntPayload(payload map[string]any, key string) int64 {
	switch v := payload[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func getTimePayload(payload map[string]any, key string) time.Time {
	s, ok := payload[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
