package queryproc

import (
	"reflect"
	"testing"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

func TestNormalizeInsertsHangulScriptBoundaries(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"30세남성", "30 세남성"},
		{"API서비스", "api 서비스"},
		{"10만원", "10 만원"},
		{"보험료가 얼마인가요?", "보험료가 얼마인가요"},
		{"  여러   공백  ", "여러 공백"},
		{"", ""},
		{"?!...", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.raw, tt.want, got)
		}
	}
}

func TestTokenizeKeepsFirstOccurrence(t *testing.T) {
	got := Tokenize("보험 보장 보험 내용")
	want := []string{"보험", "보장", "내용"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected tokens %v, got %v", want, got)
	}
}

func TestExtractKeywordsStripsParticlesAndStopwords(t *testing.T) {
	tokens := Tokenize("보험금 청구 방법을 은 설명해주세요")
	got := ExtractKeywords(tokens)
	want := []string{"보험금", "청구", "방법", "설명해주세요"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected keywords %v, got %v", want, got)
	}
}

func TestLexiconCollapsesSynonyms(t *testing.T) {
	lexicon := NewLexicon()

	terms := lexicon.MatchTerms(Normalize("해약하고 싶어요"))
	if !reflect.DeepEqual(terms, []string{"해지"}) {
		t.Fatalf("expected synonym to collapse to canonical 해지, got %v", terms)
	}

	terms = lexicon.MatchTerms(Normalize("골절 수술비 보장 금액을 알려주세요"))
	want := []string{"보장", "수술비", "골절", "수술"}
	if !reflect.DeepEqual(terms, want) {
		t.Fatalf("expected domain terms %v, got %v", want, terms)
	}
}

func TestExtractEntities(t *testing.T) {
	lexicon := NewLexicon()
	raw := "30세 남성이 1,000만원 진단금 보장을 3년 납입으로 가입하면"
	entities := extractEntities(raw, Normalize(raw), lexicon)

	if !reflect.DeepEqual(entities[EntityAges], []string{"30세"}) {
		t.Errorf("expected ages [30세], got %v", entities[EntityAges])
	}
	if !reflect.DeepEqual(entities[EntityAmounts], []string{"1,000만원"}) {
		t.Errorf("expected amounts [1,000만원], got %v", entities[EntityAmounts])
	}
	if !reflect.DeepEqual(entities[EntityPeriods], []string{"3년"}) {
		t.Errorf("expected periods [3년], got %v", entities[EntityPeriods])
	}
}

func TestExtractEntitiesAgeIsNotAPeriod(t *testing.T) {
	lexicon := NewLexicon()
	raw := "45세 가입 조건"
	entities := extractEntities(raw, Normalize(raw), lexicon)

	if len(entities[EntityPeriods]) != 0 {
		t.Fatalf("expected no periods for an age span, got %v", entities[EntityPeriods])
	}
	if !reflect.DeepEqual(entities[EntityAges], []string{"45세"}) {
		t.Fatalf("expected ages [45세], got %v", entities[EntityAges])
	}
}

func TestPreprocessEmptyQuery(t *testing.T) {
	processor := NewProcessor(nil)

	for _, raw := range []string{"", "   ", "?!"} {
		pq := processor.Preprocess(raw)
		if !pq.IsEmpty() {
			t.Errorf("Preprocess(%q): expected empty query", raw)
		}
		if pq.Intent != domain.IntentUnknown {
			t.Errorf("Preprocess(%q): expected UNKNOWN intent, got %s", raw, pq.Intent)
		}
		if pq.Confidence != 0 {
			t.Errorf("Preprocess(%q): expected zero confidence, got %v", raw, pq.Confidence)
		}
		if pq.Complexity.Level != domain.ComplexitySimple {
			t.Errorf("Preprocess(%q): expected simple complexity, got %s", raw, pq.Complexity.Level)
		}
	}
}

func TestPreprocessFullPipeline(t *testing.T) {
	processor := NewProcessor(nil)
	pq := processor.Preprocess("골절 수술비 보장 금액을 알려주세요")

	if pq.Intent != domain.IntentSearch {
		t.Fatalf("expected SEARCH intent, got %s", pq.Intent)
	}
	if pq.Normalized != "골절 수술비 보장 금액을 알려주세요" {
		t.Fatalf("unexpected normalized form %q", pq.Normalized)
	}
	if len(pq.Keywords) != 5 {
		t.Fatalf("expected 5 keywords, got %v", pq.Keywords)
	}
	if !reflect.DeepEqual(pq.DomainTerms, []string{"보장", "수술비", "골절", "수술"}) {
		t.Fatalf("unexpected domain terms %v", pq.DomainTerms)
	}
	if !reflect.DeepEqual(pq.Entities[EntityDiseases], []string{"골절", "수술"}) {
		t.Fatalf("expected diseases [골절 수술], got %v", pq.Entities[EntityDiseases])
	}
	if pq.Complexity.Level != domain.ComplexityVeryComplex {
		t.Fatalf("expected very_complex level, got %s (score %v)", pq.Complexity.Level, pq.Complexity.Score)
	}
	if pq.Complexity.DomainTermCount != 4 {
		t.Fatalf("expected 4 domain terms counted, got %d", pq.Complexity.DomainTermCount)
	}
}

func TestSearchKeywordsMergesAndFallsBack(t *testing.T) {
	merged := SearchKeywords(domain.ProcessedQuery{
		Keywords:    []string{"수술비", "보장"},
		DomainTerms: []string{"보장", "골절"},
	})
	want := []string{"수술비", "보장", "골절"}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("expected merged keywords %v, got %v", want, merged)
	}

	fallback := SearchKeywords(domain.ProcessedQuery{Tokens: []string{"은", "는"}})
	if !reflect.DeepEqual(fallback, []string{"은", "는"}) {
		t.Fatalf("expected token fallback, got %v", fallback)
	}
}

func TestEmbeddingTextAppendsDomainTerms(t *testing.T) {
	got := EmbeddingText(domain.ProcessedQuery{
		Original:    "골절 보장 알려주세요",
		DomainTerms: []string{"보장", "골절"},
	})
	if got != "골절 보장 알려주세요 보장 골절" {
		t.Fatalf("unexpected embedding text %q", got)
	}

	plain := EmbeddingText(domain.ProcessedQuery{Original: "질문"})
	if plain != "질문" {
		t.Fatalf("expected original text, got %q", plain)
	}
}

func TestLoadLexiconRejectsMissingFile(t *testing.T) {
	if _, err := LoadLexicon("/nonexistent/lexicon.json"); err == nil {
		t.Fatal("expected error for missing lexicon file")
	}
}
