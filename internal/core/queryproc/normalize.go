package queryproc

import (
	"strings"
	"unicode"
)

// Normalize lowercases the query, strips punctuation, inserts spaces at
// script boundaries (digits or Latin letters glued to Hangul) and collapses
// runs of whitespace. Hangul text like "30세남성" or "API서비스" becomes
// separable tokens without losing any content.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw) + 8)
	prev := scriptNone
	for _, r := range strings.ToLower(raw) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte(' ')
			prev = scriptNone
			continue
		}
		cur := scriptOf(r)
		if boundary(prev, cur) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = cur
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

type script int

const (
	scriptNone script = iota
	scriptHangul
	scriptLatin
	scriptDigit
	scriptOther
)

func scriptOf(r rune) script {
	switch {
	case r >= 0xAC00 && r <= 0xD7A3:
		return scriptHangul
	case r >= 'a' && r <= 'z':
		return scriptLatin
	case unicode.IsDigit(r):
		return scriptDigit
	default:
		return scriptOther
	}
}

// boundary reports whether two adjacent runes belong to scripts that Korean
// text glues together without a separator ("10만원", "api서비스").
// Latin and digits stay joined; only transitions into or out of Hangul split.
func boundary(prev, cur script) bool {
	if prev == scriptNone || prev == cur {
		return false
	}
	return prev == scriptHangul || cur == scriptHangul
}
