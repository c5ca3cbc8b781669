package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/leonardobora/GeraAI/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return New(db)
}

func createTestUser(t *testing.T, s *Store, id string) *User {
	t.Helper()

	user := &User{
		ID:                  id,
		SpotifyUserID:       "spotify-" + id,
		Email:               sql.NullString{String: id + "@example.com", Valid: true},
		DisplayName:         sql.NullString{String: "Test User", Valid: true},
		SpotifyAccessToken:  "sealed-access",
		SpotifyRefreshToken: "sealed-refresh",
	}
	if err := s.UpsertUserFromSpotify(context.Background(), user); err != nil {
		t.Fatalf("UpsertUserFromSpotify failed: %v", err)
	}
	return user
}

func TestUserUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, s, "u1")

	fetched, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.SpotifyUserID != "spotify-u1" {
		t.Errorf("SpotifyUserID = %q, want %q", fetched.SpotifyUserID, "spotify-u1")
	}
	if !fetched.SpotifyConnected() {
		t.Error("expected user to be spotify-connected")
	}

	// Second upsert for the same Spotify account must not create a new row
	// and must refresh the credentials.
	again := &User{
		ID:                  "u1-different-id",
		SpotifyUserID:       "spotify-u1",
		SpotifyAccessToken:  "sealed-access-2",
		SpotifyRefreshToken: "sealed-refresh-2",
	}
	if err := s.UpsertUserFromSpotify(ctx, again); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	fetched, err = s.GetUserBySpotifyID(ctx, "spotify-u1")
	if err != nil {
		t.Fatalf("GetUserBySpotifyID failed: %v", err)
	}
	if fetched.ID != "u1" {
		t.Errorf("upsert changed user id to %q", fetched.ID)
	}
	if fetched.SpotifyAccessToken != "sealed-access-2" {
		t.Errorf("access token not refreshed: %q", fetched.SpotifyAccessToken)
	}
}

func TestClearSpotifyTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "u1")

	if err := s.ClearSpotifyTokens(ctx, "u1"); err != nil {
		t.Fatalf("ClearSpotifyTokens failed: %v", err)
	}

	user, _ := s.GetUser(ctx, "u1")
	if user.SpotifyConnected() {
		t.Error("expected user to be disconnected")
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUser(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("GetUser = %v, want ErrNotFound", err)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "u1")

	p := &Playlist{
		UserID:         "u1",
		Name:           "Heavy Training 💪",
		Description:    "Playlist generated from AI based on: rock for the gym",
		OriginalPrompt: "rock for the gym",
		SizeTier:       "short",
		DiscoveryLevel: "safe",
	}
	if err := s.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("CreatePlaylist did not fill in the id")
	}

	tracks := []Track{
		{SpotifyTrackID: "t1", Title: "Song A", Artist: "Artist A", DurationSeconds: 200, Position: 1, AddedSuccessfully: true},
		{SpotifyTrackID: "t2", Title: "Song B", Artist: "Artist B", DurationSeconds: 190, Position: 2, AddedSuccessfully: true},
	}
	if err := s.ReplaceTracks(ctx, p.ID, tracks); err != nil {
		t.Fatalf("ReplaceTracks failed: %v", err)
	}

	count, seconds, err := s.PlaylistStats(ctx, p.ID)
	if err != nil {
		t.Fatalf("PlaylistStats failed: %v", err)
	}
	if count != 2 || seconds != 390 {
		t.Errorf("PlaylistStats = (%d, %d), want (2, 390)", count, seconds)
	}

	// Replacing again with the same set must not double-count.
	if err := s.ReplaceTracks(ctx, p.ID, tracks); err != nil {
		t.Fatalf("second ReplaceTracks failed: %v", err)
	}
	count, seconds, _ = s.PlaylistStats(ctx, p.ID)
	if count != 2 || seconds != 390 {
		t.Errorf("stats after replace = (%d, %d), want (2, 390)", count, seconds)
	}

	got, err := s.GetTracks(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetTracks failed: %v", err)
	}
	for i, tr := range got {
		if tr.Position != i+1 {
			t.Errorf("track %d position = %d, want %d", i, tr.Position, i+1)
		}
	}

	list, err := s.ListPlaylistsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListPlaylistsByUser failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(list))
	}
}

func TestDeletePlaylistRemovesShares(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "u1")

	p := &Playlist{UserID: "u1", Name: "P", OriginalPrompt: "x", SizeTier: "short", DiscoveryLevel: "safe"}
	if err := s.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	if err := s.ReplaceTracks(ctx, p.ID, []Track{
		{SpotifyTrackID: "t1", Title: "A", Artist: "B", Position: 1, AddedSuccessfully: true},
	}); err != nil {
		t.Fatalf("ReplaceTracks failed: %v", err)
	}

	share := &SharedPlaylist{PlaylistID: p.ID, ShareToken: "apple-river-42", IsPublic: true}
	if err := s.CreateShare(ctx, share); err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}

	if err := s.DeletePlaylist(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlaylist failed: %v", err)
	}

	if _, err := s.GetPlaylist(ctx, p.ID); err != ErrNotFound {
		t.Errorf("GetPlaylist after delete = %v, want ErrNotFound", err)
	}
	if _, err := s.GetShareByToken(ctx, "apple-river-42"); err != ErrNotFound {
		t.Errorf("GetShareByToken after delete = %v, want ErrNotFound", err)
	}
	if tracks, _ := s.GetTracks(ctx, p.ID); len(tracks) != 0 {
		t.Errorf("expected no tracks after delete, got %d", len(tracks))
	}
}

func TestShareTokenExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "u1")

	p := &Playlist{UserID: "u1", Name: "P", OriginalPrompt: "x", SizeTier: "short", DiscoveryLevel: "safe"}
	if err := s.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	if err := s.CreateShare(ctx, &SharedPlaylist{PlaylistID: p.ID, ShareToken: "lazy-tiger-7", IsPublic: true}); err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}

	exists, err := s.ShareTokenExists(ctx, "lazy-tiger-7")
	if err != nil || !exists {
		t.Errorf("ShareTokenExists = (%v, %v), want (true, nil)", exists, err)
	}
	exists, err = s.ShareTokenExists(ctx, "unused-token-0")
	if err != nil || exists {
		t.Errorf("ShareTokenExists = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestUsageTracking(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, s, "u1")

	usage, err := s.GetOrCreateUsage(ctx, "u1", "2026-09")
	if err != nil {
		t.Fatalf("GetOrCreateUsage failed: %v", err)
	}
	if usage.PlaylistsCreated != 0 {
		t.Errorf("new usage row PlaylistsCreated = %d, want 0", usage.PlaylistsCreated)
	}

	for i := 0; i < 3; i++ {
		if err := s.IncrementPlaylistsCreated(ctx, "u1", "2026-09"); err != nil {
			t.Fatalf("IncrementPlaylistsCreated failed: %v", err)
		}
	}

	usage, _ = s.GetOrCreateUsage(ctx, "u1", "2026-09")
	if usage.PlaylistsCreated != 3 {
		t.Errorf("PlaylistsCreated = %d, want 3", usage.PlaylistsCreated)
	}

	// A different month starts fresh.
	usage, _ = s.GetOrCreateUsage(ctx, "u1", "2026-10")
	if usage.PlaylistsCreated != 0 {
		t.Errorf("next month PlaylistsCreated = %d, want 0", usage.PlaylistsCreated)
	}
}
