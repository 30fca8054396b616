package queryproc

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CategoryMedical groups disease and treatment terms; used for entity tagging.
const CategoryMedical = "medical_terms"

// Lexicon is the static domain dictionary mapping surface forms and synonyms
// to canonical insurance terms. It is loaded once and read-only afterwards.
type Lexicon struct {
	entries []lexiconEntry
}

type lexiconEntry struct {
	category  string
	canonical string
	surfaces  []string
}

// NewLexicon returns the built-in insurance dictionary.
func NewLexicon() *Lexicon {
	return buildLexicon(defaultTerms())
}

// LoadLexicon reads a category -> canonical term -> synonyms JSON file.
// The canonical term itself always counts as one of its surface forms.
func LoadLexicon(path string) (*Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}
	var terms map[string]map[string][]string
	if err := json.Unmarshal(raw, &terms); err != nil {
		return nil, fmt.Errorf("parse lexicon file: %w", err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("lexicon file %s contains no categories", path)
	}
	return buildLexicon(terms), nil
}

func buildLexicon(terms map[string]map[string][]string) *Lexicon {
	entries := make([]lexiconEntry, 0, 32)
	for category, canonicals := range terms {
		for canonical, synonyms := range canonicals {
			surfaces := make([]string, 0, len(synonyms)+1)
			surfaces = append(surfaces, canonical)
			for _, s := range synonyms {
				s = strings.TrimSpace(s)
				if s != "" && s != canonical {
					surfaces = append(surfaces, s)
				}
			}
			entries = append(entries, lexiconEntry{
				category:  category,
				canonical: canonical,
				surfaces:  surfaces,
			})
		}
	}
	// Fixed iteration order keeps term extraction deterministic.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].category != entries[j].category {
			return entries[i].category < entries[j].category
		}
		return entries[i].canonical < entries[j].canonical
	})
	return &Lexicon{entries: entries}
}

// MatchTerms returns the canonical form of every dictionary term whose
// canonical spelling or any synonym occurs in text. Multiple surface forms
// of the same term collapse into a single canonical entry.
func (l *Lexicon) MatchTerms(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{}, 8)
	for _, e := range l.entries {
		if _, ok := seen[e.canonical]; ok {
			continue
		}
		for _, surface := range e.surfaces {
			if strings.Contains(text, surface) {
				seen[e.canonical] = struct{}{}
				out = append(out, e.canonical)
				break
			}
		}
	}
	return out
}

// MatchCategory is MatchTerms restricted to one dictionary category.
func (l *Lexicon) MatchCategory(text, category string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, e := range l.entries {
		if e.category != category {
			continue
		}
		for _, surface := range e.surfaces {
			if strings.Contains(text, surface) {
				out = append(out, e.canonical)
				break
			}
		}
	}
	return out
}

// Size returns the number of canonical terms in the dictionary.
func (l *Lexicon) Size() int {
	return len(l.entries)
}

func defaultTerms() map[string]map[string][]string {
	return map[string]map[string][]string{
		CategoryMedical: {
			"질병":     {"병", "증상"},
			"수술":     {"시술"},
			"입원":     {},
			"통원":     {},
			"골절":     {},
			"암":      {},
			"뇌혈관질환": {"뇌졸중"},
			"심장질환":  {"심근경색"},
		},
		"insurance_terms": {
			"보험료":  {"프리미엄", "납입금"},
			"보험금":  {"지급금", "급여금"},
			"가입":   {"신청", "청약"},
			"청구":   {},
			"해지":   {"해약"},
			"특약":   {"추가보장", "옵션"},
			"면책기간": {},
			"납입기간": {},
		},
		"coverage_terms": {
			"보장":     {"담보", "커버"},
			"진단금":    {},
			"수술비":    {},
			"입원비":    {},
			"통원비":    {},
			"만기환급금": {},
			"해약환급금": {},
		},
	}
}
