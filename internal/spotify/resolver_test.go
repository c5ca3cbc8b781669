package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeSearcher struct {
	// results maps a query to the tracks it returns.
	results map[string][]Track
	// errs maps a query to a one-shot error queue.
	errs    map[string][]error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	f.queries = append(f.queries, query)
	if queue := f.errs[query]; len(queue) > 0 {
		err := queue[0]
		f.errs[query] = queue[1:]
		return nil, err
	}
	return f.results[query], nil
}

func newTestResolver() *Resolver {
	return &Resolver{sleep: func(time.Duration) {}}
}

func TestResolvePreservesOrder(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Track{
		"Song A - Artist A": {{ID: "a", URI: "spotify:track:a"}},
		"Song B - Artist B": {{ID: "b", URI: "spotify:track:b"}},
	}}

	result, err := newTestResolver().Resolve(context.Background(), s,
		[]string{"Song A - Artist A", "Song B - Artist B"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(result.Matches))
	}
	if result.Matches[0].Track.ID != "a" || result.Matches[1].Track.ID != "b" {
		t.Errorf("matches out of order: %+v", result.Matches)
	}
	if result.LowMatchWarning {
		t.Error("unexpected low-match warning")
	}
}

func TestResolveQueryVariants(t *testing.T) {
	// Raw query misses; the separator-stripped variant hits.
	s := &fakeSearcher{results: map[string][]Track{
		"Song A Artist A": {{ID: "a"}},
	}}

	result, err := newTestResolver().Resolve(context.Background(), s, []string{"Song A - Artist A"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}
	if len(s.queries) != 2 {
		t.Errorf("expected 2 queries (raw then stripped), got %v", s.queries)
	}
}

func TestResolveUnmatchedSkipped(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Track{
		"Song A - Artist A": {{ID: "a"}},
	}}

	result, err := newTestResolver().Resolve(context.Background(), s,
		[]string{"Song A - Artist A", "Ghost Song - Nobody"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Errorf("got %d matches, want 1", len(result.Matches))
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0] != "Ghost Song - Nobody" {
		t.Errorf("Unresolved = %v", result.Unresolved)
	}
}

func TestResolveLowMatchWarning(t *testing.T) {
	s := &fakeSearcher{results: map[string][]Track{
		"Song A - Artist A": {{ID: "a"}},
	}}

	items := []string{"Song A - Artist A", "X - Y1", "X - Y2", "X - Y3"}
	// 1 of 4 resolved = 25%, below the 30% threshold.
	result, err := newTestResolver().Resolve(context.Background(), s, items)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !result.LowMatchWarning {
		t.Error("expected low-match warning at 25% match rate")
	}
}

func TestResolveRetriesAfterRateLimit(t *testing.T) {
	s := &fakeSearcher{
		results: map[string][]Track{
			"Song A - Artist A": {{ID: "a"}},
		},
		errs: map[string][]error{
			"Song A - Artist A": {&RateLimitError{RetryAfter: time.Second}},
		},
	}

	var slept time.Duration
	r := &Resolver{sleep: func(d time.Duration) { slept += d }}

	result, err := r.Resolve(context.Background(), s, []string{"Song A - Artist A"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Errorf("got %d matches, want 1 after retry", len(result.Matches))
	}
	if slept != time.Second {
		t.Errorf("slept %s, want 1s", slept)
	}
}

func TestResolveAbortsOnAuthFailure(t *testing.T) {
	s := &fakeSearcher{errs: map[string][]error{
		"Song A - Artist A": {ErrAuthFailed},
	}}

	_, err := newTestResolver().Resolve(context.Background(), s,
		[]string{"Song A - Artist A", "Song B - Artist B"})
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("Resolve = %v, want ErrAuthFailed", err)
	}
	// No queries for the second item once auth is known bad.
	for _, q := range s.queries {
		if q == "Song B - Artist B" {
			t.Error("resolver kept searching after auth failure")
		}
	}
}

// failingSearcher errors on every call, like a catalog outage.
type failingSearcher struct {
	err   error
	calls int
}

func (f *failingSearcher) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	f.calls++
	return nil, f.err
}

func TestResolveFailsWhenNoSearchSucceeds(t *testing.T) {
	upstream := errors.New("connection refused")
	s := &failingSearcher{err: upstream}

	_, err := newTestResolver().Resolve(context.Background(), s,
		[]string{"Song A - Artist A", "Song B - Artist B"})
	if !errors.Is(err, upstream) {
		t.Fatalf("Resolve = %v, want wrapped %v", err, upstream)
	}
	if s.calls == 0 {
		t.Error("no search calls were made")
	}
}

func TestResolvePartialOutageStillReturnsMatches(t *testing.T) {
	// One item errors on every variant; the other resolves. A successful
	// search anywhere means this was not an outage, so no error.
	s := &fakeSearcher{
		results: map[string][]Track{
			"Song A - Artist A": {{ID: "a"}},
		},
		errs: map[string][]error{
			"Song B - Artist B": {errors.New("timeout")},
			"Song B Artist B":   {errors.New("timeout")},
			"Song B":            {errors.New("timeout")},
			"Artist B":          {errors.New("timeout")},
		},
	}

	result, err := newTestResolver().Resolve(context.Background(), s,
		[]string{"Song A - Artist A", "Song B - Artist B"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Errorf("got %d matches, want 1", len(result.Matches))
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0] != "Song B - Artist B" {
		t.Errorf("Unresolved = %v", result.Unresolved)
	}
}

func TestResolveAbortsOnForbidden(t *testing.T) {
	// A 403 means the credential is bad for every remaining query too.
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestResolver().Resolve(context.Background(), newTestSession(srv),
		[]string{"Song A - Artist A", "Song B - Artist B"})
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("Resolve = %v, want ErrAuthFailed", err)
	}
	if calls != 1 {
		t.Errorf("search calls = %d, want 1 (abort on first forbidden)", calls)
	}
}

func TestQueryVariants(t *testing.T) {
	got := queryVariants("Song A - Artist A")
	want := []string{"Song A - Artist A", "Song A Artist A", "Song A", "Artist A"}
	if len(got) != len(want) {
		t.Fatalf("queryVariants = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variant %d = %q, want %q", i, got[i], want[i])
		}
	}

	got = queryVariants("no separator here")
	if len(got) != 1 || got[0] != "no separator here" {
		t.Errorf("queryVariants without separator = %v", got)
	}
}
