package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over the posts fts column with ts_rank
// ordering and ts_headline snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	where := "p.is_deleted = FALSE AND p.fts @@ " + tsQuery
	if q.FilterType != "" {
		where += fmt.Sprintf(" AND p.type = $%d", argN)
		args = append(args, q.FilterType)
		argN++
	}
	if q.Locale != "" {
		where += fmt.Sprintf(" AND p.locale = $%d", argN)
		args = append(args, q.Locale)
		argN++
	}
	if q.PublicOnly {
		where += " AND p.status = 'published' AND p.visibility = 'public'"
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM posts p WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT p.id, p.type, p.title, p.slug,
			ts_headline('english', coalesce(p.excerpt, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
			p.locale, p.status
		FROM posts p
		WHERE %s
		ORDER BY ts_rank(p.fts, %s) DESC
		LIMIT %d OFFSET %d`, tsQuery, where, tsQuery, limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Type, &r.Title, &r.Slug, &r.Snippet, &r.Locale, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns every live post for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PostRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, type, title, slug, COALESCE(excerpt, ''), status, visibility, locale
		FROM posts
		WHERE is_deleted = FALSE
	`)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	defer rows.Close()

	records := make([]PostRecord, 0)
	for rows.Next() {
		var rec PostRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Title, &rec.Slug, &rec.Excerpt, &rec.Status, &rec.Visibility, &rec.Locale); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return records, nil
}
