package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`[\s_\-]+`)

// NormalizeName lowercases name and removes whitespace, dashes and underscores.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// ClosestName returns the candidate most similar to name after
// normalization, ok is false if no candidate reaches minSimilarity.
func ClosestName(name string, candidates []string, minSimilarity float64) (string, bool) {
	name = NormalizeName(name)
	best := ""
	bestSimilarity := 0.0
	for _, c := range candidates {
		similarity := matchr.JaroWinkler(name, NormalizeName(c), false)
		if similarity > bestSimilarity {
			best = c
			bestSimilarity = similarity
		}
	}
	return best, best != "" && bestSimilarity >= minSimilarity
}
