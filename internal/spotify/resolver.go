package spotify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardobora/GeraAI/internal/ai"
)

// searchLimit keeps resolution queries cheap; the first hit wins.
const searchLimit = 3

// lowMatchThreshold marks results where fewer than 30% of the
// recommendations resolved to catalog tracks.
const lowMatchThreshold = 0.3

// maxRetryWait caps how long a single 429 pause can stall the pipeline.
const maxRetryWait = 5 * time.Second

// Searcher is the slice of the API the resolver needs. Session satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Track, error)
}

// Match pairs a recommendation with the catalog track it resolved to.
type Match struct {
	Recommendation string
	Track          Track
}

// Result is the outcome of resolving one recommendation list.
type Result struct {
	Matches         []Match
	Unresolved      []string
	LowMatchWarning bool
}

// Resolver turns "Song - Artist" recommendations into catalog tracks.
type Resolver struct {
	sleep func(time.Duration)
}

func NewResolver() *Resolver {
	return &Resolver{sleep: time.Sleep}
}

// Resolve looks up every recommendation in order. Unmatched items are
// skipped rather than failing the batch; an auth failure aborts
// immediately since every remaining query would fail the same way.
// When not a single search call succeeds, the last error is returned so
// a catalog outage is not mistaken for "nothing matched".
func (r *Resolver) Resolve(ctx context.Context, s Searcher, items []string) (*Result, error) {
	result := &Result{}
	anySearched := false
	var lastErr error

	for _, item := range items {
		track, found, searched, err := r.resolveOne(ctx, s, item)
		if errors.Is(err, ErrAuthFailed) {
			return nil, err
		}
		if err != nil {
			lastErr = err
		}
		if searched {
			anySearched = true
		}
		if found {
			result.Matches = append(result.Matches, Match{Recommendation: item, Track: track})
		} else {
			result.Unresolved = append(result.Unresolved, item)
		}
	}

	if len(items) > 0 && !anySearched && lastErr != nil {
		return nil, fmt.Errorf("catalog search failed for every query: %w", lastErr)
	}

	if len(items) > 0 {
		ratio := float64(len(result.Matches)) / float64(len(items))
		result.LowMatchWarning = ratio < lowMatchThreshold
	}
	return result, nil
}

// resolveOne tries each query variant in order. searched reports whether
// at least one search call completed without error; err carries either
// the auth failure (terminal) or the last transient failure seen.
func (r *Resolver) resolveOne(ctx context.Context, s Searcher, item string) (track Track, found, searched bool, err error) {
	var lastErr error
	for _, query := range queryVariants(item) {
		tracks, searchErr := r.search(ctx, s, query)
		if searchErr != nil {
			if errors.Is(searchErr, ErrAuthFailed) {
				return Track{}, false, searched, searchErr
			}
			// Transient failure on this variant; try the next one.
			lastErr = searchErr
			continue
		}
		searched = true
		if len(tracks) > 0 {
			return tracks[0], true, true, nil
		}
	}
	return Track{}, false, searched, lastErr
}

// search runs one query, retrying once after a rate-limit pause.
func (r *Resolver) search(ctx context.Context, s Searcher, query string) ([]Track, error) {
	tracks, err := s.Search(ctx, query, searchLimit)
	wait, limited := IsRateLimited(err)
	if !limited {
		return tracks, err
	}

	if wait > maxRetryWait {
		wait = maxRetryWait
	}
	r.sleep(wait)
	return s.Search(ctx, query, searchLimit)
}

// queryVariants orders the lookups from most to least specific: the raw
// recommendation, the two halves joined by a space, then each half alone.
func queryVariants(item string) []string {
	left, right, _, ok := ai.SplitItem(item)
	if !ok {
		return []string{item}
	}
	return []string{item, left + " " + right, left, right}
}
