package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/services"
	"github.com/leonardobora/GeraAI/internal/store"
)

// ShareHandler creates share links and serves their public snapshots.
type ShareHandler struct {
	store        *store.Store
	shareLinks   *services.ShareLinkService
	shareBaseURL string
}

func NewShareHandler(s *store.Store, shareLinks *services.ShareLinkService, shareBaseURL string) *ShareHandler {
	return &ShareHandler{store: s, shareLinks: shareLinks, shareBaseURL: shareBaseURL}
}

// Create issues a share token for one of the caller's playlists.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	id, err := parsePlaylistID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	p, err := h.store.GetPlaylist(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && p.UserID != userID) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load playlist", err)
		return
	}

	var req models.ShareRequest
	if r.Body != nil {
		// Body is optional; a bare POST shares without expiry.
		json.NewDecoder(r.Body).Decode(&req)
	}

	token, err := h.shareLinks.Generate(r.Context())
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to generate share token", err)
		return
	}

	share := &store.SharedPlaylist{
		PlaylistID: p.ID,
		ShareToken: token,
		IsPublic:   true,
	}
	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().UTC().AddDate(0, 0, req.ExpiresInDays)
		share.ExpiresAt = sql.NullTime{Time: t, Valid: true}
		expiresAt = &t
	}

	if err := h.store.CreateShare(r.Context(), share); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to create share", err)
		return
	}

	writeJSON(w, http.StatusCreated, models.ShareResponse{
		ShareToken: token,
		ShareURL:   h.shareBaseURL + "/shared/" + token,
		ExpiresAt:  expiresAt,
	})
}

// GetShared serves the public snapshot for a share token. No auth.
func (h *ShareHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	share, err := h.store.GetShareByToken(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "share not found")
		return
	}
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load share", err)
		return
	}

	if !share.IsPublic || (share.ExpiresAt.Valid && share.ExpiresAt.Time.Before(time.Now())) {
		// Expired links look the same as unknown ones.
		writeError(w, http.StatusNotFound, "share not found")
		return
	}

	p, err := h.store.GetPlaylist(r.Context(), share.PlaylistID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load playlist", err)
		return
	}
	tracks, err := h.store.GetTracks(r.Context(), share.PlaylistID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load tracks", err)
		return
	}

	writeJSON(w, http.StatusOK, models.SharedPlaylistResponse{
		Name:           p.Name,
		Description:    p.Description,
		OriginalPrompt: p.OriginalPrompt,
		TrackCount:     p.TrackCount,
		TotalDuration:  p.TotalDuration,
		Tracks:         trackResponses(tracks),
	})
}

func parsePlaylistID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
