package queryproc

import (
	"math"
	"strings"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// intentRules are evaluated in priority order: on a score tie the earlier
// rule wins (SEARCH > EXPLAIN > COMPARE > CALCULATE > APPLY > MODIFY).
// A cue matched in the full text scores 2, a partial token match scores 1.
// strongCues guarantee a confidence floor when they appear in the text.
var intentRules = []struct {
	intent     domain.QueryIntent
	cues       []string
	strongCues []string
}{
	{
		intent: domain.IntentSearch,
		cues:   []string{"알려", "알고", "뭔가", "뭔지", "무엇", "궁금", "문의", "조회", "확인", "정보", "소개", "찾", "검색"},
	},
	{
		intent: domain.IntentExplain,
		cues:   []string{"어떻게", "방법", "절차", "설명"},
	},
	{
		intent:     domain.IntentCompare,
		cues:       []string{"비교", "차이", "대비"},
		strongCues: []string{"비교", "차이"},
	},
	{
		intent:     domain.IntentCalculate,
		cues:       []string{"얼마", "금액", "비용", "가격", "계산", "산출"},
		strongCues: []string{"얼마", "계산"},
	},
	{
		intent: domain.IntentApply,
		cues:   []string{"가입", "신청", "등록", "청약"},
	},
	{
		intent:     domain.IntentModify,
		cues:       []string{"변경", "수정", "바꾸", "해지", "취소"},
		strongCues: []string{"변경", "수정", "해지"},
	},
}

// minIntentScore is the weakest evidence still accepted as a classification.
const minIntentScore = 1

func classifyIntent(normalized string, tokens []string) (domain.QueryIntent, float64) {
	if normalized == "" {
		return domain.IntentUnknown, 0
	}

	bestIntent := domain.IntentUnknown
	bestScore := 0
	bestConfidence := 0.0

	for _, rule := range intentRules {
		score := 0
		for _, cue := range rule.cues {
			switch {
			case strings.Contains(normalized, cue):
				score += 2
			case anyTokenContains(tokens, cue):
				score++
			}
		}
		if score < minIntentScore || score <= bestScore {
			continue
		}

		confidence := math.Min(float64(score)/3.0, 1.0)
		for _, cue := range rule.strongCues {
			if strings.Contains(normalized, cue) {
				confidence = math.Max(confidence, 0.8)
				break
			}
		}

		bestIntent = rule.intent
		bestScore = score
		bestConfidence = confidence
	}

	return bestIntent, bestConfidence
}

func anyTokenContains(tokens []string, cue string) bool {
	for _, tok := range tokens {
		if strings.Contains(tok, cue) {
			return true
		}
	}
	return false
}

var questionTypes = []struct {
	label string
	cues  []string
}{
	{"how_much", []string{"얼마", "금액"}},
	{"what", []string{"무엇", "뭔가", "뭔지"}},
	{"how", []string{"어떻게", "방법", "어떤"}},
	{"when", []string{"언제", "시기"}},
	{"where", []string{"어디"}},
	{"why", []string{"왜", "이유"}},
}

// deriveQueryType labels the query structure from the resolved intent plus
// surface question markers.
func deriveQueryType(normalized string, intent domain.QueryIntent) string {
	if intent == domain.IntentCompare || strings.Contains(normalized, "비교") || strings.Contains(normalized, "차이") {
		return "comparison"
	}
	for _, qt := range questionTypes {
		for _, cue := range qt.cues {
			if strings.Contains(normalized, cue) {
				return qt.label
			}
		}
	}
	return "statement"
}
