package database

import (
	"context"
	"time"
)

// Filter narrows bulletin listing queries. Zero values mean "no filter".
type Filter struct {
	Category string
	Alerted  *bool
	Since    *time.Time
}

// BulletinStore is the sole deduplication authority: Insert is idempotent
// on Reference and safe under concurrent polls of mirrored feeds.
type BulletinStore interface {
	Exists(ctx context.Context, reference string) (bool, error)
	Insert(ctx context.Context, b Bulletin) error

	GetRecent(ctx context.Context, filter Filter, limit int) ([]Bulletin, error)
	GetStats(ctx context.Context) (Stats, error)
}
