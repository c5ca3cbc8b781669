package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// addTracksBatchSize is Spotify's per-request cap on playlist additions.
const addTracksBatchSize = 100

type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	DurationMS int      `json:"duration_ms"`
	PreviewURL string   `json:"preview_url"`
	Album      Album    `json:"album"`
	Artists    []Artist `json:"artists"`
}

type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Artist struct {
	Name string `json:"name"`
}

type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// ArtistNames joins the track's artists for display.
func (t Track) ArtistNames() string {
	out := ""
	for i, a := range t.Artists {
		if i > 0 {
			out += ", "
		}
		out += a.Name
	}
	return out
}

type searchResponse struct {
	Tracks struct {
		Items []Track `json:"items"`
	} `json:"tracks"`
}

type Profile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Images      []Image `json:"images"`
}

type Playlist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (s *Session) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *Session) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Profile fetches the authenticated user's account.
func (s *Session) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.get(ctx, "/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Search runs a track search. Limit is clamped to Spotify's 1..50 range.
func (s *Session) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	path := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)
	var out searchResponse
	if err := s.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Tracks.Items, nil
}

// CreatePlaylist creates a private playlist on the user's account.
func (s *Session) CreatePlaylist(ctx context.Context, spotifyUserID, name, description string) (*Playlist, error) {
	payload := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var out Playlist
	path := fmt.Sprintf("/users/%s/playlists", url.PathEscape(spotifyUserID))
	if err := s.post(ctx, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddTracks appends track URIs to a playlist, splitting into batches of
// at most 100 as the API requires. Returns the number of URIs accepted.
func (s *Session) AddTracks(ctx context.Context, playlistID string, uris []string) (int, error) {
	added := 0
	for start := 0; start < len(uris); start += addTracksBatchSize {
		end := start + addTracksBatchSize
		if end > len(uris) {
			end = len(uris)
		}

		payload := map[string]any{"uris": uris[start:end]}
		path := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
		if err := s.post(ctx, path, payload, nil); err != nil {
			return added, err
		}
		added += end - start
	}
	return added, nil
}
