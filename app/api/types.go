package api

import (
	"time"

	"github.com/okutsev/certwatch/app/database"
	"github.com/okutsev/certwatch/app/feed"
)

type Handler struct {
	store     database.BulletinStore
	sources   []feed.Source
	version   string
	startedAt time.Time
}

type bulletinResponse struct {
	Reference       string    `json:"reference"`
	Category        string    `json:"category"`
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	Published       time.Time `json:"published"`
	Summary         string    `json:"summary"`
	MatchedProducts []string  `json:"matched_products"`
	Alerted         bool      `json:"alerted"`
}
