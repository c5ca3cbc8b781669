// Package models defines the JSON request/response types for the HTTP API.
package models

import "time"

// ErrorResponse is the uniform error envelope. Code is machine-readable;
// Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GenerateRequest starts a playlist generation.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	SizeTier       string `json:"sizeTier,omitempty"`
	DiscoveryLevel string `json:"discoveryLevel,omitempty"`
	AllowExplicit  bool   `json:"allowExplicit,omitempty"`
}

// GenerateResponse returns the created playlist with its tracks.
type GenerateResponse struct {
	Playlist        PlaylistResponse `json:"playlist"`
	Tracks          []TrackResponse  `json:"tracks"`
	SpotifyURL      string           `json:"spotifyUrl,omitempty"`
	LowMatchWarning bool             `json:"lowMatchWarning,omitempty"`
	Unresolved      []string         `json:"unresolved,omitempty"`
}

// PlaylistResponse is the public view of a stored playlist.
type PlaylistResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	OriginalPrompt    string    `json:"originalPrompt"`
	SpotifyPlaylistID string    `json:"spotifyPlaylistId,omitempty"`
	TrackCount        int       `json:"trackCount"`
	TotalDuration     string    `json:"totalDuration"`
	SizeTier          string    `json:"sizeTier"`
	DiscoveryLevel    string    `json:"discoveryLevel"`
	CreatedAt         time.Time `json:"createdAt"`
}

// TrackResponse is the public view of a stored track.
type TrackResponse struct {
	ID                int64  `json:"id"`
	SpotifyTrackID    string `json:"spotifyTrackId"`
	Title             string `json:"title"`
	Artist            string `json:"artist"`
	Album             string `json:"album,omitempty"`
	DurationSeconds   int    `json:"durationSeconds"`
	PreviewURL        string `json:"previewUrl,omitempty"`
	CoverImageURL     string `json:"coverImageUrl,omitempty"`
	Position          int    `json:"position"`
	AddedSuccessfully bool   `json:"addedSuccessfully"`
}

// PlaylistDetailResponse pairs a playlist with its tracks.
type PlaylistDetailResponse struct {
	Playlist PlaylistResponse `json:"playlist"`
	Tracks   []TrackResponse  `json:"tracks"`
}

// ShareRequest creates a share link for a playlist.
type ShareRequest struct {
	ExpiresInDays int `json:"expiresInDays,omitempty"`
}

// ShareResponse returns the created share link.
type ShareResponse struct {
	ShareToken string     `json:"shareToken"`
	ShareURL   string     `json:"shareUrl"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// SharedPlaylistResponse is the public snapshot served for a share token.
type SharedPlaylistResponse struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	OriginalPrompt string          `json:"originalPrompt"`
	TrackCount     int             `json:"trackCount"`
	TotalDuration  string          `json:"totalDuration"`
	Tracks         []TrackResponse `json:"tracks"`
}

// MeResponse describes the authenticated account.
type MeResponse struct {
	ID                  string `json:"id"`
	Email               string `json:"email,omitempty"`
	DisplayName         string `json:"displayName,omitempty"`
	ProfileImageURL     string `json:"profileImageUrl,omitempty"`
	SpotifyConnected    bool   `json:"spotifyConnected"`
	AIProvider          string `json:"aiProvider"`
	SubscriptionPlan    string `json:"subscriptionPlan"`
	SubscriptionStatus  string `json:"subscriptionStatus"`
	PlaylistsThisMonth  int    `json:"playlistsThisMonth"`
	GenerationsLeftHour int    `json:"generationsLeftHour"`
}

// AISettingsRequest updates the user's provider preferences. Keys are
// write-only; omitting a key keeps the stored one.
type AISettingsRequest struct {
	Provider         string  `json:"provider"`
	PerplexityAPIKey *string `json:"perplexityApiKey,omitempty"`
	OpenAIAPIKey     *string `json:"openaiApiKey,omitempty"`
	GeminiAPIKey     *string `json:"geminiApiKey,omitempty"`
}

// AISettingsResponse reports the provider selection and which keys are set,
// never the keys themselves.
type AISettingsResponse struct {
	Provider         string `json:"provider"`
	HasPerplexityKey bool   `json:"hasPerplexityKey"`
	HasOpenAIKey     bool   `json:"hasOpenaiKey"`
	HasGeminiKey     bool   `json:"hasGeminiKey"`
}

// SearchResultResponse is one catalog hit from /api/spotify/search.
type SearchResultResponse struct {
	SpotifyTrackID  string `json:"spotifyTrackId"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album,omitempty"`
	DurationSeconds int    `json:"durationSeconds"`
	CoverImageURL   string `json:"coverImageUrl,omitempty"`
}

// CheckoutRequest starts a subscription checkout.
type CheckoutRequest struct {
	Plan string `json:"plan"`
}

// CheckoutResponse carries the Stripe-hosted page URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// AuthCallbackResponse finishes the OAuth flow.
type AuthCallbackResponse struct {
	Token string     `json:"token"`
	User  MeResponse `json:"user"`
}

// ConfigResponse exposes the public runtime configuration.
type ConfigResponse struct {
	SpotifyAuthEnabled bool   `json:"spotifyAuthEnabled"`
	BillingEnabled     bool   `json:"billingEnabled"`
	FrontendURL        string `json:"frontendUrl,omitempty"`
}
