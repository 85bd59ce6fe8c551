// Package slug provides string normalization helpers for file and
// segment naming.
package slug

import (
	"strings"
	"unicode"
)

// foldMap maps accented characters common in Brazilian Portuguese to
// their ASCII equivalents.
var foldMap = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// Make normalizes a value for use in filenames and segment keys:
// accents folded to ASCII, lowercased, and runs of non-alphanumeric
// characters collapsed to a single underscore.
func Make(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "desconhecido"
	}

	var b strings.Builder

	lastUnderscore := false

	for _, r := range value {
		if folded, ok := foldMap[r]; ok {
			r = folded
		}

		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) {
			b.WriteRune(r)

			lastUnderscore = false

			continue
		}

		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')

			lastUnderscore = true
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "desconhecido"
	}

	return out
}

// NormalizeWhitespace trims the string and collapses internal runs of
// whitespace to a single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}
