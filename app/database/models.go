package database

import (
	"time"
)

// Bulletin is a bulletin row in the database. Rows are written once at
// ingestion and never updated.
type Bulletin struct {
	ID              string // Database UUID
	Reference       string // Canonical bulletin code, unique
	Category        string
	Title           string
	Link            string
	Published       time.Time
	Summary         string
	MatchedProducts []string
	Alerted         bool
	CreatedAt       time.Time
}

// Stats summarizes the stored bulletins for the stats endpoint.
type Stats struct {
	Total      int
	Alerted    int
	ByCategory map[string]int
}
