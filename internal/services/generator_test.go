package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/leonardobora/GeraAI/internal/ai"
	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/database"
	"github.com/leonardobora/GeraAI/internal/playlist"
	"github.com/leonardobora/GeraAI/internal/spotify"
	"github.com/leonardobora/GeraAI/internal/store"
)

type fakeProvider struct {
	recommendations []string
	err             error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ai.Options) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recommendations, nil
}

type fakeProviderFactory struct {
	provider *fakeProvider
	err      error
}

func (f *fakeProviderFactory) ForSettings(ai.Settings) (ai.Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

type fakeSession struct {
	searchResults map[string][]spotify.Track
	searchErr     error
	createdName   string
	addedURIs     []string
}

func (f *fakeSession) Search(ctx context.Context, query string, limit int) ([]spotify.Track, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults[query], nil
}

func (f *fakeSession) Profile(ctx context.Context) (*spotify.Profile, error) {
	return &spotify.Profile{ID: "spotify-u1"}, nil
}

func (f *fakeSession) CreatePlaylist(ctx context.Context, spotifyUserID, name, description string) (*spotify.Playlist, error) {
	f.createdName = name
	p := &spotify.Playlist{ID: "remote-pl-1", Name: name}
	p.ExternalURLs.Spotify = "https://open.spotify.com/playlist/remote-pl-1"
	return p, nil
}

func (f *fakeSession) AddTracks(ctx context.Context, playlistID string, uris []string) (int, error) {
	f.addedURIs = append(f.addedURIs, uris...)
	return len(uris), nil
}

func (f *fakeSession) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "rotated-access", Expiry: time.Now().Add(time.Hour)}, nil
}

type generatorFixture struct {
	gen      *Generator
	store    *store.Store
	session  *fakeSession
	factory  *fakeProviderFactory
	notified []string
}

func newGeneratorFixture(t *testing.T) *generatorFixture {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sealer, err := crypto.NewSealer("test-app-secret")
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}

	f := &generatorFixture{
		store: store.New(db),
		session: &fakeSession{searchResults: map[string][]spotify.Track{
			"Song A - Artist A": {{ID: "a", URI: "spotify:track:a", Name: "Song A", DurationMS: 200000, Artists: []spotify.Artist{{Name: "Artist A"}}}},
			"Song B - Artist B": {{ID: "b", URI: "spotify:track:b", Name: "Song B", DurationMS: 190000, Artists: []spotify.Artist{{Name: "Artist B"}}}},
		}},
		factory: &fakeProviderFactory{provider: &fakeProvider{
			recommendations: []string{"Song A - Artist A", "Song B - Artist B"},
		}},
	}

	f.gen = &Generator{
		store:     f.store,
		sealer:    sealer,
		providers: f.factory,
		sessions: func(ctx context.Context, access, refresh string, expiry time.Time) catalogSession {
			return f.session
		},
		resolver:  spotify.NewResolver(),
		assembler: playlist.NewAssembler(f.store),
		limiter:   NewGenerationLimiter(10),
		notify:    func(userID string) { f.notified = append(f.notified, userID) },
	}

	sealedAccess, _ := sealer.Seal("access-token")
	sealedRefresh, _ := sealer.Seal("refresh-token")
	user := &store.User{
		ID:                  "u1",
		SpotifyUserID:       "spotify-u1",
		SpotifyAccessToken:  sealedAccess,
		SpotifyRefreshToken: sealedRefresh,
	}
	if err := f.store.UpsertUserFromSpotify(context.Background(), user); err != nil {
		t.Fatalf("UpsertUserFromSpotify failed: %v", err)
	}
	return f
}

func testParams() GenerateParams {
	return GenerateParams{
		Prompt:         "rock for the gym",
		SizeTier:       ai.SizeShort,
		DiscoveryLevel: ai.DiscoverySafe,
	}
}

func pipelineCode(t *testing.T, err error) Code {
	t.Helper()
	var pe *PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a PipelineError", err)
	}
	return pe.Code
}

func TestGenerateHappyPath(t *testing.T) {
	f := newGeneratorFixture(t)
	ctx := context.Background()

	result, err := f.gen.Generate(ctx, "u1", testParams())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Playlist.Name != "Heavy Training 💪" {
		t.Errorf("playlist name = %q", result.Playlist.Name)
	}
	if result.Playlist.TrackCount != 2 {
		t.Errorf("TrackCount = %d, want 2", result.Playlist.TrackCount)
	}
	if !result.Playlist.SpotifyPlaylistID.Valid || result.Playlist.SpotifyPlaylistID.String != "remote-pl-1" {
		t.Errorf("SpotifyPlaylistID = %+v", result.Playlist.SpotifyPlaylistID)
	}
	if result.SpotifyURL == "" {
		t.Error("expected spotify url")
	}
	if len(result.Tracks) != 2 {
		t.Errorf("got %d tracks, want 2", len(result.Tracks))
	}
	if len(f.session.addedURIs) != 2 {
		t.Errorf("added %d uris to remote playlist, want 2", len(f.session.addedURIs))
	}
	if result.LowMatchWarning {
		t.Error("unexpected low-match warning")
	}
	if len(f.notified) != 1 || f.notified[0] != "u1" {
		t.Errorf("notified = %v", f.notified)
	}

	month := time.Now().UTC().Format("2006-01")
	usage, err := f.store.GetOrCreateUsage(ctx, "u1", month)
	if err != nil {
		t.Fatalf("GetOrCreateUsage failed: %v", err)
	}
	if usage.PlaylistsCreated != 1 {
		t.Errorf("PlaylistsCreated = %d, want 1", usage.PlaylistsCreated)
	}
	if usage.APICallsMade != 1 {
		t.Errorf("APICallsMade = %d, want 1", usage.APICallsMade)
	}
}

func TestGenerateRequiresSpotifyConnection(t *testing.T) {
	f := newGeneratorFixture(t)
	ctx := context.Background()

	if err := f.store.ClearSpotifyTokens(ctx, "u1"); err != nil {
		t.Fatalf("ClearSpotifyTokens failed: %v", err)
	}

	_, err := f.gen.Generate(ctx, "u1", testParams())
	if code := pipelineCode(t, err); code != CodeServiceNotConnected {
		t.Errorf("code = %q, want %q", code, CodeServiceNotConnected)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	f := newGeneratorFixture(t)
	f.gen.limiter = NewGenerationLimiter(1)
	ctx := context.Background()

	if _, err := f.gen.Generate(ctx, "u1", testParams()); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}

	_, err := f.gen.Generate(ctx, "u1", testParams())
	if code := pipelineCode(t, err); code != CodeRateLimited {
		t.Errorf("code = %q, want %q", code, CodeRateLimited)
	}
}

func TestGenerateProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"auth", &ai.ProviderError{Provider: "perplexity", Kind: ai.KindAuth}, CodeProviderAuthError},
		{"rate limited", &ai.ProviderError{Provider: "perplexity", Kind: ai.KindRateLimited}, CodeProviderRateLimited},
		{"unavailable", &ai.ProviderError{Provider: "perplexity", Kind: ai.KindUnavailable}, CodeProviderUnavailable},
		{"empty", &ai.ProviderError{Provider: "perplexity", Kind: ai.KindEmptyResponse}, CodeProviderEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGeneratorFixture(t)
			f.factory.provider.err = tt.err

			_, err := f.gen.Generate(context.Background(), "u1", testParams())
			if code := pipelineCode(t, err); code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

func TestGenerateNoMatches(t *testing.T) {
	f := newGeneratorFixture(t)
	f.session.searchResults = map[string][]spotify.Track{}

	_, err := f.gen.Generate(context.Background(), "u1", testParams())
	if code := pipelineCode(t, err); code != CodeNoMatchesFound {
		t.Errorf("code = %q, want %q", code, CodeNoMatchesFound)
	}
}

func TestGenerateCatalogAuthFailure(t *testing.T) {
	f := newGeneratorFixture(t)
	f.session.searchErr = spotify.ErrAuthFailed

	_, err := f.gen.Generate(context.Background(), "u1", testParams())
	if code := pipelineCode(t, err); code != CodeCatalogAuthError {
		t.Errorf("code = %q, want %q", code, CodeCatalogAuthError)
	}
}
