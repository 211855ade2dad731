package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var wordRe = regexp.MustCompile(`\w+`)

// NormalizeName canonicalizes a free-text name: word tokens (alphanumeric
// runs) are title-cased and rejoined with single spaces. Apostrophes and
// other punctuation split tokens, so "o'brien jr" becomes "O Brien Jr".
// Input with no word tokens yields "".
func NormalizeName(name string) string {
	words := wordRe.FindAllString(name, -1)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// MostFrequentName normalizes every detected name and returns the most
// frequent one. Ties resolve to the first name encountered, so the result is
// deterministic for a deterministic extractor. Returns "" when nothing
// usable was detected.
func MostFrequentName(names []string) string {
	counts := make(map[string]int)
	var order []string
	for _, n := range names {
		norm := NormalizeName(n)
		if norm == "" {
			continue
		}
		if counts[norm] == 0 {
			order = append(order, norm)
		}
		counts[norm]++
	}

	var best string
	bestCount := 0
	for _, n := range order {
		if counts[n] > bestCount {
			best, bestCount = n, counts[n]
		}
	}
	return best
}
