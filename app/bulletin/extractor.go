package bulletin

import (
	"regexp"
	"strings"
	"time"
)

// referencePattern matches authority bulletin codes of the form
// AUTHORITY-YEAR-TYPE-SEQUENCE, e.g. CERTFR-2024-ALE-007.
var referencePattern = regexp.MustCompile(`[A-Z][A-Z0-9]{2,11}-\d{4}-[A-Z]{3}-\d{1,6}`)

// Extract returns the bulletin reference found in the entry link, falling
// back to the title. Returns "" when neither carries a recognizable code;
// such entries are not bulletins (index pages, duplicates) and are dropped.
func Extract(link, title string) string {
	if ref := referencePattern.FindString(link); ref != "" {
		return ref
	}
	return referencePattern.FindString(title)
}

// Classify maps the category marker embedded in a reference to a Category.
func Classify(reference string) Category {
	switch {
	case strings.Contains(reference, "-ALE-"):
		return CategoryAlert
	case strings.Contains(reference, "-AVI-"):
		return CategoryAdvisory
	case strings.Contains(reference, "-IOC-"):
		return CategoryIndicator
	default:
		return CategoryUnknown
	}
}

// ParsePublished uses the feed-supplied publish time when present, otherwise
// the current time, so a missing timestamp never blocks ingestion.
func ParsePublished(published *time.Time) time.Time {
	if published != nil {
		return published.UTC()
	}
	return time.Now().UTC()
}
