package bulletin

import (
	"strings"
)

// MatchProducts returns the watchlist terms mentioned in the bulletin's
// title or summary. Matching is a case-insensitive substring check; the
// result preserves watchlist order and repeats no term.
func MatchProducts(watchlist []string, title, summary string) []string {
	if len(watchlist) == 0 {
		return nil
	}

	haystack := strings.ToLower(title + " " + summary)

	var matched []string
	seen := make(map[string]struct{}, len(watchlist))
	for _, term := range watchlist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		if strings.Contains(haystack, term) {
			matched = append(matched, term)
			seen[term] = struct{}{}
		}
	}

	return matched
}

// ShouldAlert decides whether a bulletin warrants notification. Kept apart
// from MatchProducts so alerting policy can change without touching matching.
func ShouldAlert(matched []string) bool {
	return len(matched) > 0
}
