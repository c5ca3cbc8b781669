package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leonardobora/GeraAI/internal/ai"
	"github.com/leonardobora/GeraAI/internal/logging"
	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/services"
	"github.com/leonardobora/GeraAI/internal/store"
)

const maxPromptLength = 500

// PlaylistHandler covers generation and playlist CRUD.
type PlaylistHandler struct {
	store     *store.Store
	generator *services.Generator
}

func NewPlaylistHandler(s *store.Store, generator *services.Generator) *PlaylistHandler {
	return &PlaylistHandler{store: s, generator: generator}
}

// Generate runs the prompt-to-playlist pipeline for the authenticated user.
func (h *PlaylistHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if len(req.Prompt) > maxPromptLength {
		writeError(w, http.StatusBadRequest, "prompt is too long")
		return
	}

	params, err := generateParams(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.generator.Generate(r.Context(), userID, params)
	if err != nil {
		writePipelineError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.GenerateResponse{
		Playlist:        playlistResponse(result.Playlist),
		Tracks:          trackResponses(result.Tracks),
		SpotifyURL:      result.SpotifyURL,
		LowMatchWarning: result.LowMatchWarning,
		Unresolved:      result.Unresolved,
	})
}

// List returns the user's playlists, newest first.
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	playlists, err := h.store.ListPlaylistsByUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to list playlists", err)
		return
	}

	out := make([]models.PlaylistResponse, 0, len(playlists))
	for i := range playlists {
		out = append(out, playlistResponse(&playlists[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one playlist with its tracks. 404s hide other users' data.
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	tracks, err := h.store.GetTracks(r.Context(), p.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load tracks", err)
		return
	}

	writeJSON(w, http.StatusOK, models.PlaylistDetailResponse{
		Playlist: playlistResponse(p),
		Tracks:   trackResponses(tracks),
	})
}

// Delete removes the playlist record, its tracks, and share links. The
// remote Spotify playlist is left alone.
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.store.DeletePlaylist(r.Context(), p.ID); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to delete playlist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ownedPlaylist loads the playlist from the URL and enforces ownership.
func (h *PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (*store.Playlist, bool) {
	userID := middleware.UserID(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return nil, false
	}

	p, err := h.store.GetPlaylist(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return nil, false
	}
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load playlist", err)
		return nil, false
	}

	if p.UserID != userID {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventOwnershipDenied, "playlist access denied")
		// 404 rather than 403: existence of other users' playlists is not disclosed.
		writeError(w, http.StatusNotFound, "playlist not found")
		return nil, false
	}
	return p, true
}

func generateParams(req models.GenerateRequest) (services.GenerateParams, error) {
	params := services.GenerateParams{
		Prompt:        req.Prompt,
		AllowExplicit: req.AllowExplicit,
	}

	switch req.SizeTier {
	case "", "short", "medium", "long":
		params.SizeTier = ai.SizeTier(req.SizeTier)
	default:
		return params, errors.New("sizeTier must be short, medium, or long")
	}

	switch req.DiscoveryLevel {
	case "", "safe", "adventurous", "balanced":
		params.DiscoveryLevel = ai.DiscoveryLevel(req.DiscoveryLevel)
	default:
		return params, errors.New("discoveryLevel must be safe, balanced, or adventurous")
	}
	return params, nil
}

func playlistResponse(p *store.Playlist) models.PlaylistResponse {
	return models.PlaylistResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		OriginalPrompt:    p.OriginalPrompt,
		SpotifyPlaylistID: p.SpotifyPlaylistID.String,
		TrackCount:        p.TrackCount,
		TotalDuration:     p.TotalDuration,
		SizeTier:          p.SizeTier,
		DiscoveryLevel:    p.DiscoveryLevel,
		CreatedAt:         p.CreatedAt,
	}
}

func trackResponses(tracks []store.Track) []models.TrackResponse {
	out := make([]models.TrackResponse, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, models.TrackResponse{
			ID:                t.ID,
			SpotifyTrackID:    t.SpotifyTrackID,
			Title:             t.Title,
			Artist:            t.Artist,
			Album:             t.Album,
			DurationSeconds:   t.DurationSeconds,
			PreviewURL:        t.PreviewURL.String,
			CoverImageURL:     t.CoverImageURL.String,
			Position:          t.Position,
			AddedSuccessfully: t.AddedSuccessfully,
		})
	}
	return out
}
