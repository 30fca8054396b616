package queryproc

import (
	"regexp"
	"strings"
)

// Entity categories used as keys in ProcessedQuery.Entities.
const (
	EntityAmounts  = "amounts"
	EntityPeriods  = "periods"
	EntityAges     = "ages"
	EntityDiseases = "diseases"
)

var (
	amountPattern = regexp.MustCompile(`\d[\d,]*\s*(?:만|천)?\s*원`)
	agePattern    = regexp.MustCompile(`\d+\s*(?:세|살)`)
	periodPattern = regexp.MustCompile(`\d+\s*(?:년|개월|주|일)`)
)

// extractEntities runs the pattern rules against the raw query text (commas
// inside amounts would not survive normalization) and tags diseases from the
// medical section of the lexicon against the normalized text.
func extractEntities(raw, normalized string, lexicon *Lexicon) map[string][]string {
	entities := make(map[string][]string, 4)

	if spans := matchSpans(amountPattern, raw); len(spans) > 0 {
		entities[EntityAmounts] = spans
	}
	if spans := matchSpans(agePattern, raw); len(spans) > 0 {
		entities[EntityAges] = spans
	}
	// Ages also look like periods to the duration pattern; drop overlaps.
	if spans := matchSpans(periodPattern, agePattern.ReplaceAllString(raw, " ")); len(spans) > 0 {
		entities[EntityPeriods] = spans
	}
	if diseases := lexicon.MatchCategory(normalized, CategoryMedical); len(diseases) > 0 {
		entities[EntityDiseases] = diseases
	}

	return entities
}

func matchSpans(re *regexp.Regexp, text string) []string {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.Join(strings.Fields(m), "")
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func entityCount(entities map[string][]string) int {
	total := 0
	for _, spans := range entities {
		total += len(spans)
	}
	return total
}
