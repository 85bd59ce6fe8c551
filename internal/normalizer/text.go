package normalizer

import (
	"strings"

	"especulai/pkg/slug"
)

// connectives stay lowercase inside a title-cased location name, the
// Brazilian Portuguese convention ("Morada do Sol").
var connectives = map[string]bool{
	"de":  true,
	"da":  true,
	"do":  true,
	"das": true,
	"dos": true,
	"e":   true,
}

// NormalizeText trims and collapses internal whitespace. It never
// changes letter case; callers decide that.
func NormalizeText(s string) string {
	return slug.NormalizeWhitespace(s)
}

// TitleLocation title-cases a neighborhood or city name, keeping
// connectives lowercase except at the start.
func TitleLocation(s string) string {
	words := strings.Fields(strings.ToLower(s))

	for i, word := range words {
		if i > 0 && connectives[word] {
			continue
		}

		r := []rune(word)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}

	return strings.Join(words, " ")
}

// SplitCombinedLocation splits a combined "bairro, cidade" string.
// Exactly one comma separates neighborhood from city; anything else is
// ambiguous and stays whole as the neighborhood with no city.
func SplitCombinedLocation(s string) (neighborhood, city string) {
	s = NormalizeText(s)

	if strings.Count(s, ",") != 1 {
		return s, ""
	}

	parts := strings.SplitN(s, ",", 2)

	return NormalizeText(parts[0]), NormalizeText(parts[1])
}
