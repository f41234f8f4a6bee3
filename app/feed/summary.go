package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxSummaryLength bounds stored summaries.
const MaxSummaryLength = 2000

// Summarize strips HTML markup from a feed entry description and truncates
// the result so a single oversized entry cannot bloat storage.
func Summarize(description string) string {
	return truncate(stripHTML(description), MaxSummaryLength)
}

func stripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return normalizeWhitespace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return normalizeWhitespace(s)
	}

	return normalizeWhitespace(doc.Text())
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
