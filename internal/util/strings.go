package util

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// maxSuggestDistance is the largest edit distance still offered as a suggestion.
const maxSuggestDistance = 2

// SuggestSimilar returns up to limit candidates within a small edit distance
// of input, closest first. Comparison ignores case.
func SuggestSimilar(input string, candidates []string, limit int) []string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || len(candidates) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	var matches []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, strings.ToLower(c))
		if d <= maxSuggestDistance {
			matches = append(matches, scored{c, d})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
