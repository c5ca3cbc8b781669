// Package store is the data access layer over SQLite.
package store

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store wraps the database handle with typed queries for the service's tables.
type Store struct {
	db *sqlx.DB
}

// New creates a Store over an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// User is a row in the users table. Token and API key columns hold sealed
// values; callers go through internal/crypto to read them.
type User struct {
	ID              string         `db:"id"`
	SpotifyUserID   string         `db:"spotify_user_id"`
	Email           sql.NullString `db:"email"`
	DisplayName     sql.NullString `db:"display_name"`
	ProfileImageURL sql.NullString `db:"profile_image_url"`

	SpotifyAccessToken    string       `db:"spotify_access_token"`
	SpotifyRefreshToken   string       `db:"spotify_refresh_token"`
	SpotifyTokenExpiresAt sql.NullTime `db:"spotify_token_expires_at"`

	AIProvider       string `db:"ai_provider"`
	PerplexityAPIKey string `db:"perplexity_api_key"`
	OpenAIAPIKey     string `db:"openai_api_key"`
	GeminiAPIKey     string `db:"gemini_api_key"`

	SubscriptionPlan     string         `db:"subscription_plan"`
	SubscriptionStatus   string         `db:"subscription_status"`
	StripeCustomerID     sql.NullString `db:"stripe_customer_id"`
	StripeSubscriptionID sql.NullString `db:"stripe_subscription_id"`
	SubscriptionEndDate  sql.NullTime   `db:"subscription_end_date"`
	TrialEndDate         sql.NullTime   `db:"trial_end_date"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SpotifyConnected reports whether the user has a usable Spotify credential.
func (u *User) SpotifyConnected() bool {
	return u.SpotifyRefreshToken != ""
}

// Playlist is a row in the playlists table.
type Playlist struct {
	ID                int64          `db:"id"`
	UserID            string         `db:"user_id"`
	Name              string         `db:"name"`
	Description       string         `db:"description"`
	OriginalPrompt    string         `db:"original_prompt"`
	SpotifyPlaylistID sql.NullString `db:"spotify_playlist_id"`
	TrackCount        int            `db:"track_count"`
	TotalDuration     string         `db:"total_duration"`
	SizeTier          string         `db:"size_tier"`
	DiscoveryLevel    string         `db:"discovery_level"`
	AllowExplicit     bool           `db:"allow_explicit"`
	CreatedAt         time.Time      `db:"created_at"`
}

// Track is a row in the tracks table; position is 1-based within its playlist.
type Track struct {
	ID                int64          `db:"id"`
	PlaylistID        int64          `db:"playlist_id"`
	SpotifyTrackID    string         `db:"spotify_track_id"`
	Title             string         `db:"title"`
	Artist            string         `db:"artist"`
	Album             string         `db:"album"`
	DurationSeconds   int            `db:"duration_seconds"`
	PreviewURL        sql.NullString `db:"preview_url"`
	CoverImageURL     sql.NullString `db:"cover_image_url"`
	Position          int            `db:"position"`
	AddedSuccessfully bool           `db:"added_successfully"`
}

// SharedPlaylist is a row in the shared_playlists table.
type SharedPlaylist struct {
	ID         int64        `db:"id"`
	PlaylistID int64        `db:"playlist_id"`
	ShareToken string       `db:"share_token"`
	IsPublic   bool         `db:"is_public"`
	CreatedAt  time.Time    `db:"created_at"`
	ExpiresAt  sql.NullTime `db:"expires_at"`
}

// Usage is a row in the usage_tracking table; MonthYear is "YYYY-MM".
type Usage struct {
	ID               int64     `db:"id"`
	UserID           string    `db:"user_id"`
	MonthYear        string    `db:"month_year"`
	PlaylistsCreated int       `db:"playlists_created"`
	APICallsMade     int       `db:"api_calls_made"`
	CreatedAt        time.Time `db:"created_at"`
}
