package domain

// QueryIntent classifies what the user wants from a query.
type QueryIntent string

const (
	IntentSearch    QueryIntent = "search"
	IntentCompare   QueryIntent = "compare"
	IntentCalculate QueryIntent = "calculate"
	IntentExplain   QueryIntent = "explain"
	IntentApply     QueryIntent = "apply"
	IntentModify    QueryIntent = "modify"
	IntentUnknown   QueryIntent = "unknown"
)

// ComplexityLevel is the ordinal bucket for query complexity.
type ComplexityLevel string

const (
	ComplexitySimple      ComplexityLevel = "simple"
	ComplexityModerate    ComplexityLevel = "moderate"
	ComplexityComplex     ComplexityLevel = "complex"
	ComplexityVeryComplex ComplexityLevel = "very_complex"
)

// QueryComplexity summarizes how demanding a query is for retrieval.
type QueryComplexity struct {
	Level           ComplexityLevel `json:"level"`
	Score           float64         `json:"score"`
	TokenCount      int             `json:"token_count"`
	DomainTermCount int             `json:"domain_term_count"`
	EntityCount     int             `json:"entity_count"`
}

// ProcessedQuery is the structured, intent-tagged form of a raw query.
// It is built once per request and never mutated afterwards.
type ProcessedQuery struct {
	Original    string              `json:"original"`
	Normalized  string              `json:"normalized"`
	Tokens      []string            `json:"tokens"`
	Keywords    []string            `json:"keywords"`
	DomainTerms []string            `json:"domain_terms"`
	Entities    map[string][]string `json:"entities"`
	Intent      QueryIntent         `json:"intent"`
	Confidence  float64             `json:"confidence"`
	QueryType   string              `json:"query_type"`
	Complexity  QueryComplexity     `json:"complexity"`
}

// IsEmpty reports whether preprocessing found no usable content.
func (q ProcessedQuery) IsEmpty() bool {
	return len(q.Tokens) == 0
}
