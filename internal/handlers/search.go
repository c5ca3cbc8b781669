package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/services"
	"github.com/leonardobora/GeraAI/internal/spotify"
	"github.com/leonardobora/GeraAI/internal/store"
)

// SearchHandler proxies catalog track search for the frontend's manual
// search box.
type SearchHandler struct {
	store   *store.Store
	sealer  *crypto.Sealer
	spotify *spotify.Client
}

func NewSearchHandler(s *store.Store, sealer *crypto.Sealer, client *spotify.Client) *SearchHandler {
	return &SearchHandler{store: s, sealer: sealer, spotify: client}
}

// Search runs a track search with the caller's Spotify credential.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load account", err)
		return
	}
	if !user.SpotifyConnected() {
		writeErrorCode(w, http.StatusBadRequest, "connect your Spotify account first", services.CodeServiceNotConnected)
		return
	}

	access, err := h.sealer.Open(user.SpotifyAccessToken)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to unseal access token", err)
		return
	}
	refresh, err := h.sealer.Open(user.SpotifyRefreshToken)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to unseal refresh token", err)
		return
	}
	expiry := time.Time{}
	if user.SpotifyTokenExpiresAt.Valid {
		expiry = user.SpotifyTokenExpiresAt.Time
	}

	session := h.spotify.Session(r.Context(), access, refresh, expiry)
	tracks, err := session.Search(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, spotify.ErrAuthFailed) {
			writeErrorCode(w, http.StatusUnauthorized, "Spotify session expired, reconnect your account", services.CodeCatalogAuthError)
			return
		}
		if _, limited := spotify.IsRateLimited(err); limited {
			writeErrorCode(w, http.StatusTooManyRequests, "Spotify is rate limiting requests", services.CodeRateLimited)
			return
		}
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "catalog search failed", err)
		return
	}

	out := make([]models.SearchResultResponse, 0, len(tracks))
	for _, t := range tracks {
		result := models.SearchResultResponse{
			SpotifyTrackID:  t.ID,
			Title:           t.Name,
			Artist:          t.ArtistNames(),
			Album:           t.Album.Name,
			DurationSeconds: t.DurationMS / 1000,
		}
		if len(t.Album.Images) > 0 {
			result.CoverImageURL = t.Album.Images[0].URL
		}
		out = append(out, result)
	}
	writeJSON(w, http.StatusOK, out)
}
