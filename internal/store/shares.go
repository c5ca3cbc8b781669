package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateShare inserts a share link row and fills in its generated id.
func (s *Store) CreateShare(ctx context.Context, share *SharedPlaylist) error {
	query := `INSERT INTO shared_playlists (playlist_id, share_token, is_public, expires_at)
	VALUES (:playlist_id, :share_token, :is_public, :expires_at)
	RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, query, share)
	if err != nil {
		return fmt.Errorf("failed to create share link: %w", err)
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	if rows.Next() {
		if err := rows.Scan(&share.ID); err != nil {
			return fmt.Errorf("failed to scan share id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returning rows: %w", err)
	}

	return nil
}

func (s *Store) GetShareByToken(ctx context.Context, token string) (*SharedPlaylist, error) {
	var share SharedPlaylist
	err := s.db.GetContext(ctx, &share,
		`SELECT * FROM shared_playlists WHERE share_token = ?`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return &share, nil
}

func (s *Store) ShareTokenExists(ctx context.Context, token string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM shared_playlists WHERE share_token = ?`, token)
	if err != nil {
		return false, fmt.Errorf("failed to check share token: %w", err)
	}
	return count > 0, nil
}
