package queryproc

import (
	"strings"
	"unicode/utf8"
)

// Korean particles that survive whitespace tokenization either standalone or
// glued to the previous word.
var stopwords = map[string]struct{}{
	"은": {}, "는": {}, "이": {}, "가": {}, "을": {}, "를": {},
	"에": {}, "의": {}, "와": {}, "과": {}, "로": {}, "으로": {},
	"에서": {}, "부터": {}, "까지": {}, "도": {}, "만": {}, "조차": {},
	"마저": {}, "라도": {}, "에게": {}, "로써": {}, "로서": {},
}

var trailingParticles = map[rune]struct{}{
	'은': {}, '는': {}, '이': {}, '가': {}, '을': {}, '를': {},
	'의': {}, '에': {}, '와': {}, '과': {}, '도': {}, '로': {},
}

// Tokenize splits normalized text into its ordered token sequence, keeping
// the first occurrence of repeated tokens.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, tok := range fields {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// ExtractKeywords filters tokens down to content words: stopwords drop out,
// an attached trailing particle is stripped, and single-rune leftovers are
// discarded.
func ExtractKeywords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, ok := stopwords[tok]; ok {
			continue
		}
		kw := stripTrailingParticle(tok)
		if utf8.RuneCountInString(kw) < 2 {
			continue
		}
		if _, ok := stopwords[kw]; ok {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// stripTrailingParticle removes a single attached subject/object particle
// from words of three or more runes ("금액을" -> "금액"). Shorter words are
// left alone so real two-syllable words are not mangled.
func stripTrailingParticle(tok string) string {
	runes := []rune(tok)
	if len(runes) < 3 {
		return tok
	}
	if _, ok := trailingParticles[runes[len(runes)-1]]; ok {
		return string(runes[:len(runes)-1])
	}
	return tok
}
