package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

const postColumns = `
	id, type, title, slug, COALESCE(excerpt, ''), content,
	COALESCE(author_id, ''), status, visibility, COALESCE(password, ''), locale,
	COALESCE(featured_media_id, ''), categories, tags,
	parent_id, menu_order, ancestors, published_at, is_deleted, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var item Post
	var content, categories, tags, ancestors []byte
	err := row.Scan(
		&item.ID,
		&item.Type,
		&item.Title,
		&item.Slug,
		&item.Excerpt,
		&content,
		&item.AuthorID,
		&item.Status,
		&item.Visibility,
		&item.Password,
		&item.Locale,
		&item.FeaturedMediaID,
		&categories,
		&tags,
		&item.ParentID,
		&item.MenuOrder,
		&ancestors,
		&item.PublishedAt,
		&item.IsDeleted,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Post{}, err
	}
	item.Content = json.RawMessage(content)
	_ = json.Unmarshal(categories, &item.Categories)
	_ = json.Unmarshal(tags, &item.Tags)
	_ = json.Unmarshal(ancestors, &item.Ancestors)
	if item.Ancestors == nil {
		item.Ancestors = []string{}
	}
	return item, nil
}

func encodeStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return encoded, nil
}

func (s *PostgresStore) InsertPost(ctx context.Context, item Post) error {
	content := item.Content
	if len(content) == 0 {
		content = json.RawMessage(`{"blocks":[]}`)
	}
	categories, err := encodeStrings(item.Categories)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(item.Tags)
	if err != nil {
		return err
	}
	ancestors, err := encodeStrings(item.Ancestors)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (
			id, type, title, slug, excerpt, content,
			author_id, status, visibility, password, locale,
			featured_media_id, categories, tags,
			parent_id, menu_order, ancestors, published_at, is_deleted
		)
		VALUES (
			$1, $2, $3, $4, NULLIF($5, ''), $6::jsonb,
			NULLIF($7, ''), $8, $9, NULLIF($10, ''), $11,
			NULLIF($12, ''), $13::jsonb, $14::jsonb,
			$15, $16, $17::jsonb, $18, $19
		)
	`,
		item.ID, item.Type, item.Title, item.Slug, item.Excerpt, string(content),
		item.AuthorID, item.Status, item.Visibility, item.Password, item.Locale,
		item.FeaturedMediaID, string(categories), string(tags),
		item.ParentID, item.MenuOrder, string(ancestors), item.PublishedAt, item.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// UpdatePost persists the updatable fields of a post in one statement.
// parent_id and ancestors always travel together so a reader can never see
// one without the matching other.
func (s *PostgresStore) UpdatePost(ctx context.Context, item Post) error {
	content := item.Content
	if len(content) == 0 {
		content = json.RawMessage(`{"blocks":[]}`)
	}
	categories, err := encodeStrings(item.Categories)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(item.Tags)
	if err != nil {
		return err
	}
	ancestors, err := encodeStrings(item.Ancestors)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title=$2, slug=$3, excerpt=NULLIF($4, ''), content=$5::jsonb,
			status=$6, visibility=$7, password=NULLIF($8, ''), locale=$9,
			featured_media_id=NULLIF($10, ''), categories=$11::jsonb, tags=$12::jsonb,
			parent_id=$13, menu_order=$14, ancestors=$15::jsonb,
			published_at=$16, updated_at=NOW()
		WHERE id=$1 AND is_deleted=FALSE
	`,
		item.ID, item.Title, item.Slug, item.Excerpt, string(content),
		item.Status, item.Visibility, item.Password, item.Locale,
		item.FeaturedMediaID, string(categories), string(tags),
		item.ParentID, item.MenuOrder, string(ancestors),
		item.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdatePostParent moves a post to a new parent. The new ancestor chain is
// written in the same statement as parent_id.
func (s *PostgresStore) UpdatePostParent(ctx context.Context, postID string, parentID *string, ancestorIDs []string) error {
	ancestors, err := encodeStrings(ancestorIDs)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET parent_id=$2, ancestors=$3::jsonb, updated_at=NOW()
		WHERE id=$1 AND is_deleted=FALSE
	`, postID, parentID, string(ancestors))
	if err != nil {
		return fmt.Errorf("update post parent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post parent rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) GetPost(ctx context.Context, postID string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id=$1 AND is_deleted=FALSE
	`, postID)
	return scanPost(row)
}

func (s *PostgresStore) GetPostBySlug(ctx context.Context, postType, slug, locale string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE type=$1 AND LOWER(slug)=LOWER($2) AND locale=$3 AND is_deleted=FALSE
	`, postType, slug, locale)
	return scanPost(row)
}

// GetPostsByIDs returns the matching non-deleted posts in no particular
// order; callers that care about ordering reorder the result themselves.
func (s *PostgresStore) GetPostsByIDs(ctx context.Context, ids []string) ([]Post, error) {
	if len(ids) == 0 {
		return []Post{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id IN (`+strings.Join(placeholders, ", ")+`) AND is_deleted=FALSE
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("get posts by ids: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0, len(ids))
	for rows.Next() {
		item, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}

// SoftDeletePost flags the post deleted and archives it; the row stays.
func (s *PostgresStore) SoftDeletePost(ctx context.Context, postID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET is_deleted=TRUE, status=$2, updated_at=NOW()
		WHERE id=$1 AND is_deleted=FALSE
	`, postID, StatusArchived)
	if err != nil {
		return fmt.Errorf("soft delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete post rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListChildren returns the non-deleted children of parentID (nil for root
// level), ordered by menu_order then title.
func (s *PostgresStore) ListChildren(ctx context.Context, parentID *string, typeFilter string) ([]Post, error) {
	where := "parent_id IS NULL"
	args := []any{}
	argN := 1
	if parentID != nil {
		where = fmt.Sprintf("parent_id = $%d", argN)
		args = append(args, *parentID)
		argN++
	}
	where += " AND is_deleted=FALSE"
	if typeFilter != "" {
		where += fmt.Sprintf(" AND type = $%d", argN)
		args = append(args, typeFilter)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE `+where+`
		ORDER BY menu_order ASC, title ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		item, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return items, nil
}

// buildListQuery assembles the WHERE clause, ORDER BY clause and bind
// arguments for ListPosts. Queries of three or more runes go through
// the tsvector index with rank ordering; shorter queries fall back to a
// case-insensitive substring match on title, slug and excerpt, where
// token-based search would return nothing useful.
func buildListQuery(filter ListFilter) (where, orderBy string, args []any) {
	where = "type = $1 AND is_deleted=FALSE"
	args = []any{filter.Type}
	argN := 2

	if filter.Status != "" && filter.Status != "all" {
		where += fmt.Sprintf(" AND status = $%d", argN)
		args = append(args, filter.Status)
		argN++
	}

	query := strings.TrimSpace(filter.Query)
	orderBy = "status ASC, published_at DESC NULLS LAST, updated_at DESC"

	if query != "" {
		if len([]rune(query)) >= 3 {
			where += fmt.Sprintf(" AND fts @@ plainto_tsquery('english', $%d)", argN)
			orderBy = fmt.Sprintf("ts_rank(fts, plainto_tsquery('english', $%d)) DESC, %s", argN, orderBy)
			args = append(args, query)
		} else {
			pattern := "%" + escapeLike(query) + "%"
			where += fmt.Sprintf(" AND (title ILIKE $%d OR slug ILIKE $%d OR COALESCE(excerpt, '') ILIKE $%d)", argN, argN, argN)
			args = append(args, pattern)
		}
	}
	return where, orderBy, args
}

// ListPosts runs the paginated listing query.
func (s *PostgresStore) ListPosts(ctx context.Context, filter ListFilter) (ListResult, error) {
	where, orderBy, args := buildListQuery(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE `+where, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count posts: %w", err)
	}

	limit := filter.Limit
	offset := (filter.Page - 1) * limit

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM posts
		WHERE %s
		ORDER BY %s
		LIMIT %d OFFSET %d
	`, postColumns, where, orderBy, limit, offset), args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		item, err := scanPost(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate posts: %w", err)
	}
	return ListResult{Items: items, Total: total}, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
