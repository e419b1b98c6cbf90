package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GetMeta returns the value stored under key, or nil when the key is absent.
func (s *PostgresStore) GetMeta(ctx context.Context, postID, key string) (json.RawMessage, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT meta_value FROM post_meta WHERE post_id=$1 AND meta_key=$2
	`, postID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	return json.RawMessage(value), nil
}

// SetMeta upserts one key; a second set on the same key overwrites.
func (s *PostgresStore) SetMeta(ctx context.Context, entry MetaEntry) error {
	value := entry.Value
	if len(value) == 0 {
		value = json.RawMessage(`null`)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_meta (post_id, meta_key, meta_value)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (post_id, meta_key)
		DO UPDATE SET meta_value=EXCLUDED.meta_value, updated_at=NOW()
	`, entry.PostID, entry.Key, string(value))
	if err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

// DeleteMeta removes a key; deleting an absent key is a no-op.
func (s *PostgresStore) DeleteMeta(ctx context.Context, postID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM post_meta WHERE post_id=$1 AND meta_key=$2
	`, postID, key)
	if err != nil {
		return fmt.Errorf("delete meta: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMeta(ctx context.Context, postID, keyPrefix string) ([]MetaEntry, error) {
	query := `
		SELECT post_id, meta_key, meta_value
		FROM post_meta
		WHERE post_id=$1
	`
	args := []any{postID}
	if keyPrefix != "" {
		query += ` AND meta_key LIKE $2`
		args = append(args, escapeLike(strings.TrimSpace(keyPrefix))+"%")
	}
	query += ` ORDER BY meta_key ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meta: %w", err)
	}
	defer rows.Close()

	items := make([]MetaEntry, 0)
	for rows.Next() {
		var item MetaEntry
		var value []byte
		if err := rows.Scan(&item.PostID, &item.Key, &value); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		item.Value = json.RawMessage(value)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meta: %w", err)
	}
	return items, nil
}
