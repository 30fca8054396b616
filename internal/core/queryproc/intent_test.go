package queryproc

import (
	"testing"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

func TestClassifyIntentLabeledQueries(t *testing.T) {
	tests := []struct {
		query string
		want  domain.QueryIntent
	}{
		{"골절 수술비 보장 금액을 알려주세요", domain.IntentSearch},
		{"A보험과 B보험을 비교해주세요", domain.IntentCompare},
		{"30세 남성 보험료를 계산해주세요", domain.IntentCalculate},
		{"보험금 청구 방법을 설명해주세요", domain.IntentExplain},
		{"암보험에 가입하고 싶습니다", domain.IntentApply},
		{"보험 계약을 변경하려고 합니다", domain.IntentModify},
		{"실손보험이 뭔가요", domain.IntentSearch},
		{"특약 정보 찾아주세요", domain.IntentSearch},
		{"두 보험 상품을 비교하면 어떤가요", domain.IntentCompare},
		{"보험료가 얼마인가요", domain.IntentCalculate},
		{"청약 신청하려면 어떻게 하나요", domain.IntentApply},
		{"계약 해지하고 싶어요", domain.IntentModify},
	}

	for _, tt := range tests {
		normalized := Normalize(tt.query)
		intent, confidence := classifyIntent(normalized, Tokenize(normalized))
		if intent != tt.want {
			t.Errorf("query %q: expected intent %s, got %s", tt.query, tt.want, intent)
		}
		if confidence <= 0 {
			t.Errorf("query %q: expected positive confidence, got %v", tt.query, confidence)
		}
	}
}

func TestClassifyIntentUnknownWithoutCues(t *testing.T) {
	normalized := Normalize("보험")
	intent, confidence := classifyIntent(normalized, Tokenize(normalized))
	if intent != domain.IntentUnknown {
		t.Fatalf("expected UNKNOWN intent, got %s", intent)
	}
	if confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", confidence)
	}
}

func TestClassifyIntentStrongCueConfidenceFloor(t *testing.T) {
	normalized := Normalize("A보험과 B보험을 비교해주세요")
	intent, confidence := classifyIntent(normalized, Tokenize(normalized))
	if intent != domain.IntentCompare {
		t.Fatalf("expected COMPARE intent, got %s", intent)
	}
	if confidence < 0.8 {
		t.Fatalf("expected confidence >= 0.8 on strong cue, got %v", confidence)
	}
}

func TestDeriveQueryType(t *testing.T) {
	tests := []struct {
		query  string
		intent domain.QueryIntent
		want   string
	}{
		{"보험료가 얼마인가요", domain.IntentCalculate, "how_much"},
		{"실손보험이 뭔가요", domain.IntentSearch, "what"},
		{"청구 방법을 설명해주세요", domain.IntentExplain, "how"},
		{"A보험과 B보험을 비교해주세요", domain.IntentCompare, "comparison"},
		{"두 상품의 차이", domain.IntentUnknown, "comparison"},
		{"암보험에 가입하고 싶습니다", domain.IntentApply, "statement"},
	}

	for _, tt := range tests {
		got := deriveQueryType(Normalize(tt.query), tt.intent)
		if got != tt.want {
			t.Errorf("query %q: expected query type %q, got %q", tt.query, tt.want, got)
		}
	}
}
