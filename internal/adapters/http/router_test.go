package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

type fakeSearchService struct {
	results  []domain.SearchResult
	status   domain.SearchStatus
	err      error
	purged   bool
	strategy domain.SearchStrategy
	config   *domain.SearchConfig
	filter   domain.SearchFilter
}

func (f *fakeSearchService) Search(
	_ context.Context,
	_ string,
	filter domain.SearchFilter,
	strategy domain.SearchStrategy,
	config *domain.SearchConfig,
) ([]domain.SearchResult, domain.SearchStatus, error) {
	f.filter = filter
	f.strategy = strategy
	f.config = config
	if f.err != nil {
		return nil, "", f.err
	}
	return f.results, f.status, nil
}

func (f *fakeSearchService) AnalyzeQuery(rawQuery string) domain.ProcessedQuery {
	return domain.ProcessedQuery{Original: rawQuery, Intent: domain.IntentSearch}
}

func (f *fakeSearchService) GetPerformanceStats() domain.PerformanceStats {
	return domain.PerformanceStats{SearchCount: 42, CacheSize: 3}
}

func (f *fakeSearchService) PurgeCache() {
	f.purged = true
}

func TestSearchEndpoint(t *testing.T) {
	svc := &fakeSearchService{
		results: []domain.SearchResult{{EmbeddingID: "1", ChunkText: "본문", FinalScore: 0.8}},
		status:  domain.SearchStatusOK,
	}
	handler := NewRouter(svc, nil).Handler()

	body := `{"query":"암 보장 알려주세요","strategy":"hybrid","policy_ids":[1,2],"security_level":"internal","config":{"top_k":5}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Count != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if svc.strategy != domain.StrategyHybrid {
		t.Fatalf("expected hybrid strategy forwarded, got %s", svc.strategy)
	}
	if len(svc.filter.PolicyIDs) != 2 || svc.filter.SecurityLevel != "internal" {
		t.Fatalf("unexpected filter forwarded: %+v", svc.filter)
	}
	if svc.config == nil || svc.config.TopK != 5 {
		t.Fatalf("expected partial config override with top_k=5, got %+v", svc.config)
	}
	if svc.config.VectorWeight != domain.DefaultSearchConfig().VectorWeight {
		t.Fatalf("expected omitted config fields defaulted, got %+v", svc.config)
	}
}

func TestSearchEndpointWithoutConfigPassesNil(t *testing.T) {
	svc := &fakeSearchService{status: domain.SearchStatusOK}
	handler := NewRouter(svc, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"암"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.config != nil {
		t.Fatalf("expected nil config override, got %+v", svc.config)
	}
}

func TestSearchEndpointMapsErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrInvalidInput, "search", errors.New("unknown strategy")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrInvalidConfig, "search", errors.New("top_k must be at least 1")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrTemporary, "search", errors.New("backend flapping")), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		svc := &fakeSearchService{err: tt.err}
		handler := NewRouter(svc, nil).Handler()

		req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"암"}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != tt.want {
			t.Errorf("error %v: expected status %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}

func TestSearchEndpointRejectsInvalidJSON(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSearchEndpointMethodNotAllowed(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/search/analyze", strings.NewReader(`{"query":"암 보험"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pq domain.ProcessedQuery
	if err := json.Unmarshal(rec.Body.Bytes(), &pq); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if pq.Original != "암 보험" || pq.Intent != domain.IntentSearch {
		t.Fatalf("unexpected analysis %+v", pq)
	}
}

func TestStatsEndpoint(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/search/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats domain.PerformanceStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.SearchCount != 42 || stats.CacheSize != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPurgeEndpoint(t *testing.T) {
	svc := &fakeSearchService{}
	handler := NewRouter(svc, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/search/cache/purge", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.purged {
		t.Fatal("expected cache purge to be invoked")
	}
}

func TestHealthz(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
