package bulletin

import (
	"time"
)

type Category string

const (
	CategoryAlert     Category = "alert"
	CategoryAdvisory  Category = "advisory"
	CategoryIndicator Category = "indicator"
	CategoryUnknown   Category = "unknown"
)

// Bulletin is one security-advisory record derived from a feed entry.
// Immutable once persisted; Reference is the global dedup key.
type Bulletin struct {
	Reference       string
	Category        Category
	Title           string
	Link            string
	Published       time.Time
	Summary         string
	MatchedProducts []string
	Alerted         bool
}
