package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/leonardobora/GeraAI/internal/config"
	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/logging"
	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/services"
	"github.com/leonardobora/GeraAI/internal/spotify"
	"github.com/leonardobora/GeraAI/internal/store"
)

const stateCookieName = "oauth_state"

// AuthHandler runs the Spotify OAuth login flow and account endpoints.
type AuthHandler struct {
	store       *store.Store
	authService *services.AuthService
	spotify     *spotify.Client
	sealer      *crypto.Sealer
	limiter     *services.GenerationLimiter
	cfg         *config.Config
}

func NewAuthHandler(
	s *store.Store,
	authService *services.AuthService,
	client *spotify.Client,
	sealer *crypto.Sealer,
	limiter *services.GenerationLimiter,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		store:       s,
		authService: authService,
		spotify:     client,
		sealer:      sealer,
		limiter:     limiter,
		cfg:         cfg,
	}
}

// Login redirects the browser to Spotify's consent page with a fresh
// anti-CSRF state bound to a short-lived cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.spotify.AuthURL(state), http.StatusFound)
}

// Callback completes the OAuth flow: state check, code exchange, profile
// fetch, user upsert, and JWT issuance. The browser ends up back on the
// frontend with the token in the query string.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadOAuthState, "oauth state mismatch on callback")
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectWithError(w, r, "access_denied")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.spotify.Exchange(r.Context(), code)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "code exchange failed", err)
		return
	}

	session := h.spotify.SessionFromToken(r.Context(), token)
	profile, err := session.Profile(r.Context())
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "failed to fetch spotify profile", err)
		return
	}

	sealedAccess, err := h.sealer.Seal(token.AccessToken)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to seal access token", err)
		return
	}
	sealedRefresh, err := h.sealer.Seal(token.RefreshToken)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to seal refresh token", err)
		return
	}

	userID := uuid.New().String()
	if existing, err := h.store.GetUserBySpotifyID(r.Context(), profile.ID); err == nil {
		userID = existing.ID
	} else if !errors.Is(err, store.ErrNotFound) {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to look up user", err)
		return
	}

	user := &store.User{
		ID:                  userID,
		SpotifyUserID:       profile.ID,
		SpotifyAccessToken:  sealedAccess,
		SpotifyRefreshToken: sealedRefresh,
	}
	if profile.Email != "" {
		user.Email = sql.NullString{String: profile.Email, Valid: true}
	}
	if profile.DisplayName != "" {
		user.DisplayName = sql.NullString{String: profile.DisplayName, Valid: true}
	}
	if len(profile.Images) > 0 {
		user.ProfileImageURL = sql.NullString{String: profile.Images[0].URL, Valid: true}
	}
	if !token.Expiry.IsZero() {
		user.SpotifyTokenExpiresAt = sql.NullTime{Time: token.Expiry, Valid: true}
	}

	if err := h.store.UpsertUserFromSpotify(r.Context(), user); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to save user", err)
		return
	}
	// The upsert keeps the original id for returning accounts.
	saved, err := h.store.GetUserBySpotifyID(r.Context(), profile.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load user", err)
		return
	}

	jwtToken, err := h.authService.GenerateToken(saved.ID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	redirect := h.cfg.FrontendURL + "/auth/callback?token=" + url.QueryEscape(jwtToken)
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.cfg.FrontendURL+"/auth/callback?error="+url.QueryEscape(reason), http.StatusFound)
}

// Me returns the authenticated account with its quota standing.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load account", err)
		return
	}

	month := time.Now().UTC().Format("2006-01")
	usage, err := h.store.GetOrCreateUsage(r.Context(), userID, month)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load usage", err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse(user, usage, h.limiter.Remaining(userID)))
}

// Disconnect drops the stored Spotify credential; playlists stay.
func (h *AuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	if err := h.store.ClearSpotifyTokens(r.Context(), userID); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to disconnect spotify", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"disconnected": true})
}

func meResponse(user *store.User, usage *store.Usage, generationsLeft int) models.MeResponse {
	return models.MeResponse{
		ID:                  user.ID,
		Email:               user.Email.String,
		DisplayName:         user.DisplayName.String,
		ProfileImageURL:     user.ProfileImageURL.String,
		SpotifyConnected:    user.SpotifyConnected(),
		AIProvider:          user.AIProvider,
		SubscriptionPlan:    user.SubscriptionPlan,
		SubscriptionStatus:  user.SubscriptionStatus,
		PlaylistsThisMonth:  usage.PlaylistsCreated,
		GenerationsLeftHour: generationsLeft,
	}
}
