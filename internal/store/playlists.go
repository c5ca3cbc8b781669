package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreatePlaylist inserts a playlist row and fills in its generated id.
func (s *Store) CreatePlaylist(ctx context.Context, p *Playlist) error {
	query := `INSERT INTO playlists (
		user_id, name, description, original_prompt, spotify_playlist_id,
		track_count, total_duration, size_tier, discovery_level, allow_explicit
	) VALUES (
		:user_id, :name, :description, :original_prompt, :spotify_playlist_id,
		:track_count, :total_duration, :size_tier, :discovery_level, :allow_explicit
	) RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, query, p)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	if rows.Next() {
		if err := rows.Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to scan playlist id: %w", err)
		}
	} else if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating returning rows: %w", err)
	}

	return nil
}

func (s *Store) ListPlaylistsByUser(ctx context.Context, userID string) ([]Playlist, error) {
	playlists := []Playlist{}
	err := s.db.SelectContext(ctx, &playlists,
		`SELECT * FROM playlists WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return playlists, nil
}

func (s *Store) GetPlaylist(ctx context.Context, id int64) (*Playlist, error) {
	var p Playlist
	err := s.db.GetContext(ctx, &p, `SELECT * FROM playlists WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return &p, nil
}

func (s *Store) GetTracks(ctx context.Context, playlistID int64) ([]Track, error) {
	tracks := []Track{}
	err := s.db.SelectContext(ctx, &tracks,
		`SELECT * FROM tracks WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}
	return tracks, nil
}

// SetPlaylistSpotifyID records the external playlist id as soon as the
// remote playlist exists, so orphaned remote playlists stay reconcilable
// even if a later pipeline step fails.
func (s *Store) SetPlaylistSpotifyID(ctx context.Context, id int64, spotifyPlaylistID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE playlists SET spotify_playlist_id = ? WHERE id = ?`, spotifyPlaylistID, id)
	if err != nil {
		return fmt.Errorf("failed to set spotify playlist id: %w", err)
	}
	return nil
}

// ReplaceTracks writes the playlist's track rows in one transaction,
// clearing any previous rows first so a retried finalize cannot
// double-insert positions.
func (s *Store) ReplaceTracks(ctx context.Context, playlistID int64, tracks []Track) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}

	query := `INSERT INTO tracks (
		playlist_id, spotify_track_id, title, artist, album,
		duration_seconds, preview_url, cover_image_url, position, added_successfully
	) VALUES (
		:playlist_id, :spotify_track_id, :title, :artist, :album,
		:duration_seconds, :preview_url, :cover_image_url, :position, :added_successfully
	)`
	for i := range tracks {
		tracks[i].PlaylistID = playlistID
		if _, err := tx.NamedExecContext(ctx, query, &tracks[i]); err != nil {
			return fmt.Errorf("failed to insert track %d: %w", tracks[i].Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracks: %w", err)
	}
	return nil
}

// PlaylistStats recomputes track count and total duration from the
// persisted track rows.
func (s *Store) PlaylistStats(ctx context.Context, playlistID int64) (count int, totalSeconds int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(duration_seconds), 0) FROM tracks WHERE playlist_id = ?`, playlistID)
	if err := row.Scan(&count, &totalSeconds); err != nil {
		return 0, 0, fmt.Errorf("failed to compute playlist stats: %w", err)
	}
	return count, totalSeconds, nil
}

func (s *Store) UpdatePlaylistMetadata(ctx context.Context, id int64, trackCount int, totalDuration string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE playlists SET track_count = ?, total_duration = ? WHERE id = ?`,
		trackCount, totalDuration, id)
	if err != nil {
		return fmt.Errorf("failed to update playlist metadata: %w", err)
	}
	return nil
}

// DeletePlaylist removes a playlist together with its tracks and share links.
func (s *Store) DeletePlaylist(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM shared_playlists WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete share links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete tracks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
