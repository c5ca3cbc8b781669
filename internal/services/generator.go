package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/leonardobora/GeraAI/internal/ai"
	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/playlist"
	"github.com/leonardobora/GeraAI/internal/spotify"
	"github.com/leonardobora/GeraAI/internal/store"
)

// GenerateParams are the per-request generation knobs.
type GenerateParams struct {
	Prompt         string
	SizeTier       ai.SizeTier
	DiscoveryLevel ai.DiscoveryLevel
	AllowExplicit  bool
}

// GenerationResult is what a successful pipeline run produces.
type GenerationResult struct {
	Playlist        *store.Playlist
	Tracks          []store.Track
	SpotifyURL      string
	LowMatchWarning bool
	Unresolved      []string
}

// providerFactory resolves a user's AI settings to a backend.
type providerFactory interface {
	ForSettings(ai.Settings) (ai.Provider, error)
}

// catalogSession is the slice of the Spotify session the pipeline uses.
type catalogSession interface {
	spotify.Searcher
	Profile(ctx context.Context) (*spotify.Profile, error)
	CreatePlaylist(ctx context.Context, spotifyUserID, name, description string) (*spotify.Playlist, error)
	AddTracks(ctx context.Context, playlistID string, uris []string) (int, error)
	Token() (*oauth2.Token, error)
}

// sessionFactory opens a catalog session from stored (unsealed) tokens.
type sessionFactory func(ctx context.Context, accessToken, refreshToken string, expiry time.Time) catalogSession

// Generator runs the prompt-to-playlist pipeline.
type Generator struct {
	store     *store.Store
	sealer    *crypto.Sealer
	providers providerFactory
	sessions  sessionFactory
	resolver  *spotify.Resolver
	assembler *playlist.Assembler
	limiter   *GenerationLimiter
	notify    func(userID string)
}

// NewGenerator wires the production pipeline. notify may be nil.
func NewGenerator(
	s *store.Store,
	sealer *crypto.Sealer,
	providers *ai.Factory,
	client *spotify.Client,
	limiter *GenerationLimiter,
	notify func(userID string),
) *Generator {
	return &Generator{
		store:     s,
		sealer:    sealer,
		providers: providers,
		sessions: func(ctx context.Context, access, refresh string, expiry time.Time) catalogSession {
			return client.Session(ctx, access, refresh, expiry)
		},
		resolver:  spotify.NewResolver(),
		assembler: playlist.NewAssembler(s),
		limiter:   limiter,
		notify:    notify,
	}
}

// Generate runs the full pipeline for one prompt. All failures come back
// as a PipelineError carrying the client-facing code.
func (g *Generator) Generate(ctx context.Context, userID string, params GenerateParams) (*GenerationResult, error) {
	user, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to load user", err)
	}
	if !user.SpotifyConnected() {
		return nil, pipelineErr(CodeServiceNotConnected, "connect your Spotify account first", nil)
	}

	if !g.limiter.Allow(userID) {
		return nil, pipelineErr(CodeRateLimited, "generation limit reached, try again later", nil)
	}

	recommendations, err := g.recommend(ctx, user, params)
	if err != nil {
		return nil, err
	}

	session, err := g.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	resolved, err := g.resolver.Resolve(ctx, session, recommendations)
	if err != nil {
		if errors.Is(err, spotify.ErrAuthFailed) {
			return nil, pipelineErr(CodeCatalogAuthError, "Spotify session expired, reconnect your account", err)
		}
		return nil, pipelineErr(CodeInternalError, "track resolution failed", err)
	}
	if len(resolved.Matches) == 0 {
		return nil, pipelineErr(CodeNoMatchesFound, "none of the recommendations matched catalog tracks", nil)
	}

	result, err := g.materialize(ctx, user, params, session, resolved)
	if err != nil {
		return nil, err
	}

	month := time.Now().UTC().Format("2006-01")
	if err := g.store.IncrementPlaylistsCreated(ctx, userID, month); err != nil {
		slog.ErrorContext(ctx, "Failed to record playlist usage", "error", err, "user_id", userID)
	}

	g.persistRotatedTokens(ctx, user, session)

	if g.notify != nil {
		g.notify(userID)
	}
	return result, nil
}

// recommend resolves the user's AI settings and asks the provider for songs.
func (g *Generator) recommend(ctx context.Context, user *store.User, params GenerateParams) ([]string, error) {
	settings, err := g.aiSettings(user)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to unseal api key", err)
	}
	settings.SizeTier = params.SizeTier
	settings.DiscoveryLevel = params.DiscoveryLevel
	settings.AllowExplicit = params.AllowExplicit

	provider, err := g.providers.ForSettings(settings)
	if err != nil {
		return nil, providerPipelineErr(err)
	}

	month := time.Now().UTC().Format("2006-01")
	if err := g.store.IncrementAPICalls(ctx, user.ID, month); err != nil {
		slog.ErrorContext(ctx, "Failed to record api call usage", "error", err, "user_id", user.ID)
	}

	recommendations, err := provider.Generate(ctx, params.Prompt, settings.Options())
	if err != nil {
		return nil, providerPipelineErr(err)
	}
	return recommendations, nil
}

// aiSettings unseals the user's stored provider credential.
func (g *Generator) aiSettings(user *store.User) (ai.Settings, error) {
	sealed := ""
	switch user.AIProvider {
	case "openai":
		sealed = user.OpenAIAPIKey
	case "gemini":
		sealed = user.GeminiAPIKey
	default:
		sealed = user.PerplexityAPIKey
	}

	key, err := g.sealer.Open(sealed)
	if err != nil {
		return ai.Settings{}, err
	}
	return ai.Settings{Provider: user.AIProvider, APIKey: key}, nil
}

func (g *Generator) openSession(ctx context.Context, user *store.User) (catalogSession, error) {
	access, err := g.sealer.Open(user.SpotifyAccessToken)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to unseal access token", err)
	}
	refresh, err := g.sealer.Open(user.SpotifyRefreshToken)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to unseal refresh token", err)
	}

	expiry := time.Time{}
	if user.SpotifyTokenExpiresAt.Valid {
		expiry = user.SpotifyTokenExpiresAt.Time
	}
	return g.sessions(ctx, access, refresh, expiry), nil
}

// materialize creates the local draft, the remote playlist, and the track
// rows, in that order.
func (g *Generator) materialize(
	ctx context.Context,
	user *store.User,
	params GenerateParams,
	session catalogSession,
	resolved *spotify.Result,
) (*GenerationResult, error) {
	opts := ai.Options{
		SizeTier:       params.SizeTier,
		DiscoveryLevel: params.DiscoveryLevel,
		AllowExplicit:  params.AllowExplicit,
	}
	draft, err := g.assembler.CreateDraft(ctx, user.ID, params.Prompt, opts)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to create playlist record", err)
	}

	remote, err := session.CreatePlaylist(ctx, user.SpotifyUserID, draft.Name, draft.Description)
	if err != nil {
		return nil, catalogPipelineErr("failed to create Spotify playlist", err)
	}
	// Recorded before adding tracks so a partial failure still leaves the
	// remote playlist reachable from our records.
	if err := g.assembler.RecordRemoteID(ctx, draft.ID, remote.ID); err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to record Spotify playlist id", err)
	}

	uris := make([]string, 0, len(resolved.Matches))
	for _, m := range resolved.Matches {
		uris = append(uris, m.Track.URI)
	}
	if _, err := session.AddTracks(ctx, remote.ID, uris); err != nil {
		return nil, catalogPipelineErr("failed to add tracks to Spotify playlist", err)
	}

	final, err := g.assembler.Finalize(ctx, draft.ID, resolved.Matches)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to finalize playlist", err)
	}

	tracks, err := g.store.GetTracks(ctx, final.ID)
	if err != nil {
		return nil, pipelineErr(CodeInternalError, "failed to load tracks", err)
	}

	return &GenerationResult{
		Playlist:        final,
		Tracks:          tracks,
		SpotifyURL:      remote.ExternalURLs.Spotify,
		LowMatchWarning: resolved.LowMatchWarning,
		Unresolved:      resolved.Unresolved,
	}, nil
}

// persistRotatedTokens writes back any access token refreshed during the run.
func (g *Generator) persistRotatedTokens(ctx context.Context, user *store.User, session catalogSession) {
	token, err := session.Token()
	if err != nil || token == nil {
		return
	}

	sealedAccess, err := g.sealer.Seal(token.AccessToken)
	if err != nil {
		return
	}
	refresh := token.RefreshToken
	if refresh == "" {
		// Spotify does not always rotate the refresh token; keep the old one.
		if err := g.store.UpdateSpotifyTokens(ctx, user.ID, sealedAccess, user.SpotifyRefreshToken, token.Expiry); err != nil {
			slog.ErrorContext(ctx, "Failed to persist rotated tokens", "error", err, "user_id", user.ID)
		}
		return
	}

	sealedRefresh, err := g.sealer.Seal(refresh)
	if err != nil {
		return
	}
	if err := g.store.UpdateSpotifyTokens(ctx, user.ID, sealedAccess, sealedRefresh, token.Expiry); err != nil {
		slog.ErrorContext(ctx, "Failed to persist rotated tokens", "error", err, "user_id", user.ID)
	}
}

// providerPipelineErr maps an AI provider failure to its client code.
func providerPipelineErr(err error) *PipelineError {
	switch {
	case ai.IsKind(err, ai.KindAuth):
		return pipelineErr(CodeProviderAuthError, "AI provider rejected the configured credential", err)
	case ai.IsKind(err, ai.KindRateLimited):
		return pipelineErr(CodeProviderRateLimited, "AI provider is rate limiting requests", err)
	case ai.IsKind(err, ai.KindEmptyResponse):
		return pipelineErr(CodeProviderEmptyResponse, "AI provider returned no usable recommendations", err)
	default:
		return pipelineErr(CodeProviderUnavailable, "AI provider is unavailable", err)
	}
}

// catalogPipelineErr maps a Spotify API failure to its client code.
func catalogPipelineErr(message string, err error) *PipelineError {
	if errors.Is(err, spotify.ErrAuthFailed) {
		return pipelineErr(CodeCatalogAuthError, "Spotify session expired, reconnect your account", err)
	}
	return pipelineErr(CodeInternalError, message, err)
}
