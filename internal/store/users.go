package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *Store) GetUserBySpotifyID(ctx context.Context, spotifyUserID string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE spotify_user_id = ?`, spotifyUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by spotify id: %w", err)
	}
	return &user, nil
}

// UpsertUserFromSpotify creates or refreshes a user record after a Spotify
// login. Profile fields and credentials come from the OAuth callback; the
// user's AI settings and subscription are left untouched on update.
func (s *Store) UpsertUserFromSpotify(ctx context.Context, user *User) error {
	query := `INSERT INTO users (
		id, spotify_user_id, email, display_name, profile_image_url,
		spotify_access_token, spotify_refresh_token, spotify_token_expires_at,
		created_at, updated_at
	) VALUES (
		:id, :spotify_user_id, :email, :display_name, :profile_image_url,
		:spotify_access_token, :spotify_refresh_token, :spotify_token_expires_at,
		CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	)
	ON CONFLICT (spotify_user_id) DO UPDATE SET
		email = excluded.email,
		display_name = excluded.display_name,
		profile_image_url = excluded.profile_image_url,
		spotify_access_token = excluded.spotify_access_token,
		spotify_refresh_token = excluded.spotify_refresh_token,
		spotify_token_expires_at = excluded.spotify_token_expires_at,
		updated_at = CURRENT_TIMESTAMP`

	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdateSpotifyTokens stores a refreshed credential pair for the user.
func (s *Store) UpdateSpotifyTokens(ctx context.Context, userID, accessToken, refreshToken string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET
		spotify_access_token = ?, spotify_refresh_token = ?, spotify_token_expires_at = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, accessToken, refreshToken, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("failed to update spotify tokens: %w", err)
	}
	return nil
}

// ClearSpotifyTokens disconnects the user's Spotify account.
func (s *Store) ClearSpotifyTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET
		spotify_access_token = '', spotify_refresh_token = '', spotify_token_expires_at = NULL,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear spotify tokens: %w", err)
	}
	return nil
}

// UpdateAISettings stores the selected provider and sealed API keys.
// Empty key values clear the stored key so users can revoke them.
func (s *Store) UpdateAISettings(ctx context.Context, userID, provider, perplexityKey, openaiKey, geminiKey string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET
		ai_provider = ?, perplexity_api_key = ?, openai_api_key = ?, gemini_api_key = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, provider, perplexityKey, openaiKey, geminiKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update ai settings: %w", err)
	}
	return nil
}

// SubscriptionUpdate carries the fields written by billing webhook processing.
type SubscriptionUpdate struct {
	Plan                 string
	Status               string
	StripeCustomerID     sql.NullString
	StripeSubscriptionID sql.NullString
	SubscriptionEndDate  sql.NullTime
	TrialEndDate         sql.NullTime
}

func (s *Store) UpdateSubscription(ctx context.Context, userID string, upd SubscriptionUpdate) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET
		subscription_plan = ?, subscription_status = ?,
		stripe_customer_id = ?, stripe_subscription_id = ?,
		subscription_end_date = ?, trial_end_date = ?,
		updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		upd.Plan, upd.Status,
		upd.StripeCustomerID, upd.StripeSubscriptionID,
		upd.SubscriptionEndDate, upd.TrialEndDate,
		userID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// SetStripeCustomerID links a Stripe customer to the user before checkout.
func (s *Store) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET
		stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`, customerID, userID)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer id: %w", err)
	}
	return nil
}
