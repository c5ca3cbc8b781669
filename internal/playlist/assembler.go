package playlist

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leonardobora/GeraAI/internal/ai"
	"github.com/leonardobora/GeraAI/internal/spotify"
	"github.com/leonardobora/GeraAI/internal/store"
)

// Assembler persists generated playlists: a draft row up front, then the
// resolved tracks and recomputed metadata once the remote playlist exists.
type Assembler struct {
	store *store.Store
}

func NewAssembler(s *store.Store) *Assembler {
	return &Assembler{store: s}
}

// CreateDraft inserts the playlist row before any Spotify call so a
// pipeline failure still leaves an auditable record of the attempt.
func (a *Assembler) CreateDraft(ctx context.Context, userID, prompt string, opts ai.Options) (*store.Playlist, error) {
	p := &store.Playlist{
		UserID:         userID,
		Name:           NameFromPrompt(prompt),
		Description:    DescriptionFromPrompt(prompt),
		OriginalPrompt: prompt,
		SizeTier:       string(opts.SizeTier),
		DiscoveryLevel: string(opts.DiscoveryLevel),
		AllowExplicit:  opts.AllowExplicit,
	}
	if err := a.store.CreatePlaylist(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create draft playlist: %w", err)
	}
	return p, nil
}

// RecordRemoteID stores the Spotify playlist id on the draft.
func (a *Assembler) RecordRemoteID(ctx context.Context, playlistID int64, spotifyPlaylistID string) error {
	return a.store.SetPlaylistSpotifyID(ctx, playlistID, spotifyPlaylistID)
}

// Finalize writes the resolved tracks and updates the playlist's count
// and duration from what was actually persisted. Safe to retry.
func (a *Assembler) Finalize(ctx context.Context, playlistID int64, matches []spotify.Match) (*store.Playlist, error) {
	tracks := TracksFromMatches(matches)
	if err := a.store.ReplaceTracks(ctx, playlistID, tracks); err != nil {
		return nil, err
	}

	count, seconds, err := a.store.PlaylistStats(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if err := a.store.UpdatePlaylistMetadata(ctx, playlistID, count, FormatDuration(seconds)); err != nil {
		return nil, err
	}

	return a.store.GetPlaylist(ctx, playlistID)
}

// TracksFromMatches converts resolver output to track rows, assigning
// 1-based positions in match order.
func TracksFromMatches(matches []spotify.Match) []store.Track {
	tracks := make([]store.Track, 0, len(matches))
	for i, m := range matches {
		t := store.Track{
			SpotifyTrackID:    m.Track.ID,
			Title:             m.Track.Name,
			Artist:            m.Track.ArtistNames(),
			Album:             m.Track.Album.Name,
			DurationSeconds:   m.Track.DurationMS / 1000,
			Position:          i + 1,
			AddedSuccessfully: true,
		}
		if m.Track.PreviewURL != "" {
			t.PreviewURL = sql.NullString{String: m.Track.PreviewURL, Valid: true}
		}
		if len(m.Track.Album.Images) > 0 {
			t.CoverImageURL = sql.NullString{String: m.Track.Album.Images[0].URL, Valid: true}
		}
		tracks = append(tracks, t)
	}
	return tracks
}
