package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// MaxRevision returns the highest revision number recorded for the post, or
// zero when none exist.
func (s *PostgresStore) MaxRevision(ctx context.Context, postID string) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(rev), 0) FROM post_revisions WHERE post_id=$1
	`, postID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max revision: %w", err)
	}
	return max, nil
}

// InsertRevision appends a snapshot. The (post_id, rev) uniqueness constraint
// turns a concurrent-writer race into an error instead of an overwrite.
func (s *PostgresStore) InsertRevision(ctx context.Context, revision Revision) error {
	snapshot := revision.Snapshot
	if len(snapshot) == 0 {
		snapshot = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_revisions (post_id, rev, snapshot, author_id)
		VALUES ($1, $2, $3::jsonb, NULLIF($4, ''))
	`, revision.PostID, revision.Rev, string(snapshot), revision.AuthorID)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRevisions(ctx context.Context, postID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, rev, snapshot, COALESCE(author_id, ''), created_at
		FROM post_revisions
		WHERE post_id=$1
		ORDER BY rev DESC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	items := make([]Revision, 0)
	for rows.Next() {
		var item Revision
		var snapshot []byte
		if err := rows.Scan(&item.PostID, &item.Rev, &snapshot, &item.AuthorID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		item.Snapshot = json.RawMessage(snapshot)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetRevision(ctx context.Context, postID string, rev int) (Revision, error) {
	var item Revision
	var snapshot []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT post_id, rev, snapshot, COALESCE(author_id, ''), created_at
		FROM post_revisions
		WHERE post_id=$1 AND rev=$2
	`, postID, rev).Scan(&item.PostID, &item.Rev, &snapshot, &item.AuthorID, &item.CreatedAt)
	if err != nil {
		return Revision{}, err
	}
	item.Snapshot = json.RawMessage(snapshot)
	return item, nil
}
