package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

var _ BulletinStore = (*BulletinRepository)(nil)

type BulletinRepository struct {
	db *DB
}

func NewBulletinRepository(db *DB) *BulletinRepository {
	return &BulletinRepository{db: db}
}

// Exists reports whether a bulletin with the given reference was already ingested.
func (r *BulletinRepository) Exists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bulletins WHERE reference = $1)`, reference).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reference %s: %w", reference, err)
	}
	return exists, nil
}

// Insert stores a bulletin. Inserting an already-known reference is a silent
// no-op; the unique constraint, not the caller's Exists check, prevents
// duplicates under concurrent polls.
func (r *BulletinRepository) Insert(ctx context.Context, b Bulletin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bulletins (
			reference, category, title, link, published, summary,
			matched_products, alerted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reference) DO NOTHING
	`, b.Reference, b.Category, b.Title, b.Link, b.Published, b.Summary,
		pq.Array(b.MatchedProducts), b.Alerted)

	if err != nil {
		return fmt.Errorf("failed to insert bulletin %s: %w", b.Reference, err)
	}

	return nil
}

// GetRecent returns bulletins ordered by publish time, newest first.
func (r *BulletinRepository) GetRecent(ctx context.Context, filter Filter, limit int) ([]Bulletin, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, reference, category, COALESCE(title, ''), COALESCE(link, ''),
		       published, COALESCE(summary, ''), COALESCE(matched_products, '{}'),
		       alerted, created_at
		FROM bulletins
		WHERE 1=1`)

	var args []interface{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}
	if filter.Alerted != nil {
		args = append(args, *filter.Alerted)
		query.WriteString(" AND alerted = $" + strconv.Itoa(len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		query.WriteString(" AND published >= $" + strconv.Itoa(len(args)))
	}

	args = append(args, limit)
	query.WriteString(" ORDER BY published DESC LIMIT $" + strconv.Itoa(len(args)))

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bulletins: %w", err)
	}
	defer rows.Close()

	var bulletins []Bulletin
	for rows.Next() {
		var b Bulletin
		err := rows.Scan(
			&b.ID, &b.Reference, &b.Category, &b.Title, &b.Link,
			&b.Published, &b.Summary, pq.Array(&b.MatchedProducts),
			&b.Alerted, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bulletin row: %w", err)
		}
		bulletins = append(bulletins, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bulletin rows: %w", err)
	}

	return bulletins, nil
}

// GetStats returns totals per category plus overall alerted count.
func (r *BulletinRepository) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByCategory: make(map[string]int)}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COUNT(*) FILTER (WHERE alerted)
		FROM bulletins
		GROUP BY category
	`)
	if err != nil {
		return stats, fmt.Errorf("failed to get bulletin stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var total, alerted int
		if err := rows.Scan(&category, &total, &alerted); err != nil {
			return stats, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByCategory[category] = total
		stats.Total += total
		stats.Alerted += alerted
	}

	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("error iterating stats rows: %w", err)
	}

	return stats, nil
}
