package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dawoncorp/policysearch/internal/core/domain"
	"github.com/dawoncorp/policysearch/internal/core/ports"
)

type Router struct {
	search         ports.SearchService
	metricsHandler http.Handler
}

func NewRouter(search ports.SearchService, metricsHandler http.Handler) *Router {
	return &Router{
		search:         search,
		metricsHandler: metricsHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.searchPolicies)
	mux.HandleFunc("/v1/search/analyze", rt.analyzeQuery)
	mux.HandleFunc("/v1/search/stats", rt.searchStats)
	mux.HandleFunc("/v1/search/cache/purge", rt.purgeCache)
	if rt.metricsHandler != nil {
		mux.Handle("/metrics", rt.metricsHandler)
	}
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query         string               `json:"query"`
	Strategy      string               `json:"strategy"`
	PolicyIDs     []int64              `json:"policy_ids"`
	SecurityLevel string               `json:"security_level"`
	Config        *searchConfigPayload `json:"config"`
}

type searchConfigPayload struct {
	VectorWeight        *float64 `json:"vector_weight"`
	KeywordWeight       *float64 `json:"keyword_weight"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	TopK                *int     `json:"top_k"`
	MaxTokens           *int     `json:"max_tokens"`
	CandidateLimit      *int     `json:"candidate_limit"`
}

type searchResponse struct {
	Status  string                `json:"status"`
	Count   int                   `json:"count"`
	Results []domain.SearchResult `json:"results"`
}

func (rt *Router) searchPolicies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	filter := domain.SearchFilter{
		PolicyIDs:     req.PolicyIDs,
		SecurityLevel: strings.TrimSpace(req.SecurityLevel),
	}

	results, status, err := rt.search.Search(
		r.Context(),
		req.Query,
		filter,
		domain.SearchStrategy(strings.TrimSpace(req.Strategy)),
		req.Config.toDomain(),
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Status:  string(status),
		Count:   len(results),
		Results: results,
	})
}

func (rt *Router) analyzeQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	writeJSON(w, http.StatusOK, rt.search.AnalyzeQuery(req.Query))
}

func (rt *Router) searchStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.search.GetPerformanceStats())
}

func (rt *Router) purgeCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	rt.search.PurgeCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "purged"})
}

// toDomain builds a full override config from a partial payload; omitted
// fields fall back to the stock defaults.
func (p *searchConfigPayload) toDomain() *domain.SearchConfig {
	if p == nil {
		return nil
	}
	cfg := domain.DefaultSearchConfig()
	if p.VectorWeight != nil {
		cfg.VectorWeight = *p.VectorWeight
	}
	if p.KeywordWeight != nil {
		cfg.KeywordWeight = *p.KeywordWeight
	}
	if p.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *p.SimilarityThreshold
	}
	if p.TopK != nil {
		cfg.TopK = *p.TopK
	}
	if p.MaxTokens != nil {
		cfg.MaxTokens = *p.MaxTokens
	}
	if p.CandidateLimit != nil {
		cfg.CandidateLimit = *p.CandidateLimit
	}
	return &cfg
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
