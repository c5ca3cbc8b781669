package store

import (
	"context"
	"fmt"
)

// GetOrCreateUsage returns the user's usage row for the given "YYYY-MM"
// month, creating a zeroed row if none exists yet.
func (s *Store) GetOrCreateUsage(ctx context.Context, userID, monthYear string) (*Usage, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_tracking (user_id, month_year) VALUES (?, ?)
		ON CONFLICT (user_id, month_year) DO NOTHING`, userID, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure usage row: %w", err)
	}

	var usage Usage
	err = s.db.GetContext(ctx, &usage,
		`SELECT * FROM usage_tracking WHERE user_id = ? AND month_year = ?`, userID, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return &usage, nil
}

// IncrementPlaylistsCreated bumps the month's playlist counter atomically.
func (s *Store) IncrementPlaylistsCreated(ctx context.Context, userID, monthYear string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_tracking (user_id, month_year, playlists_created) VALUES (?, ?, 1)
		ON CONFLICT (user_id, month_year) DO UPDATE SET playlists_created = playlists_created + 1`,
		userID, monthYear)
	if err != nil {
		return fmt.Errorf("failed to increment playlist count: %w", err)
	}
	return nil
}

// IncrementAPICalls bumps the month's provider call counter atomically.
func (s *Store) IncrementAPICalls(ctx context.Context, userID, monthYear string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_tracking (user_id, month_year, api_calls_made) VALUES (?, ?, 1)
		ON CONFLICT (user_id, month_year) DO UPDATE SET api_calls_made = api_calls_made + 1`,
		userID, monthYear)
	if err != nil {
		return fmt.Errorf("failed to increment api call count: %w", err)
	}
	return nil
}
