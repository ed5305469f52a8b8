package worldstate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordMode tracks the case of the previous rune while splitting words.
type wordMode uint8

const (
	modeBoundary wordMode = iota
	modeLower
	modeUpper
)

// words splits s into words. Any rune that is neither a letter nor a digit
// separates words. Inside a run of letters and digits, a word ends where a
// lowercase rune meets an uppercase rune ("mobileDefense"), and before the
// last uppercase rune of an uppercase run followed by lowercase
// ("HTTPServer" splits as "HTTP" "Server"). Digits keep the mode of the rune
// before them, so "VoidT1" splits as "Void" "T1".
func words(s string) []string {
	var out []string
	for _, chunk := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out = appendWords(out, chunk)
	}
	return out
}

func appendWords(out []string, chunk string) []string {
	mode := modeBoundary
	start := 0
	for i, r := range chunk {
		next := i + utf8.RuneLen(r)
		if next >= len(chunk) {
			break
		}
		n, _ := utf8.DecodeRuneInString(chunk[next:])

		nextMode := mode
		switch {
		case unicode.IsLower(r):
			nextMode = modeLower
		case unicode.IsUpper(r):
			nextMode = modeUpper
		}

		switch {
		case nextMode == modeLower && unicode.IsUpper(n):
			out = append(out, chunk[start:next])
			start = next
			mode = modeBoundary
		case mode == modeUpper && unicode.IsUpper(r) && unicode.IsLower(n):
			out = append(out, chunk[start:i])
			start = i
			mode = modeBoundary
		default:
			mode = nextMode
		}
	}
	return append(out, chunk[start:])
}

// titleCase renders s as space separated words, each with an uppercase
// first rune and the rest lowercased.
//
//	titleCase("OrokinTowerMobileDefense") == "Orokin Tower Mobile Defense"
//	titleCase("SORTIE_MODIFIER_FIRE")     == "Sortie Modifier Fire"
func titleCase(s string) string {
	ws := words(s)
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)
	for i, w := range ws {
		_, size := utf8.DecodeRuneInString(w)
		ws[i] = upper.String(w[:size]) + lower.String(w[size:])
	}
	return strings.Join(ws, " ")
}

// titleCaseLastSegment title-cases the final path segment of s.
func titleCaseLastSegment(s string) string {
	return titleCase(lastSegment(s))
}

// splitCamelCase splits s before every uppercase rune that is not the
// first rune. Unlike [words] it keeps acronyms apart letter by letter and
// never drops characters.
//
//	splitCamelCase("PrimeDualKeres") == []string{"Prime", "Dual", "Keres"}
func splitCamelCase(s string) []string {
	var parts []string
	last := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			parts = append(parts, s[last:i])
			last = i
		}
	}
	if last < len(s) {
		parts = append(parts, s[last:])
	}
	return parts
}
