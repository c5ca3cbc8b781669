package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrAuthFailed means the user's Spotify credential was rejected and a
// re-connect is required.
var ErrAuthFailed = errors.New("spotify authorization failed")

// RateLimitError is returned on 429 responses, carrying the Retry-After
// hint when Spotify provided one.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("spotify rate limited, retry after %s", e.RetryAfter)
}

// IsRateLimited reports whether err is a rate-limit response and returns
// the retry hint.
func IsRateLimited(err error) (time.Duration, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter, true
	}
	return 0, false
}

func classifyResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrAuthFailed
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 2 * time.Second
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		return &RateLimitError{RetryAfter: retryAfter}
	default:
		return fmt.Errorf("spotify request failed with status %d", resp.StatusCode)
	}
}
