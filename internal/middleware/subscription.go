package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/leonardobora/GeraAI/internal/logging"
	"github.com/leonardobora/GeraAI/internal/store"
)

// SubscriptionQuota enforces the free plan's monthly playlist allowance.
// Paid and trialing users pass through. Must run after AuthMiddleware.
func SubscriptionQuota(s *store.Store, freeLimit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserID(r.Context())
			if userID == "" {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			user, err := s.GetUser(r.Context(), userID)
			if err != nil {
				http.Error(w, `{"error":"failed to load account","code":"internal_error"}`, http.StatusInternalServerError)
				return
			}

			if hasUnlimitedQuota(user) {
				next.ServeHTTP(w, r)
				return
			}

			month := time.Now().UTC().Format("2006-01")
			usage, err := s.GetOrCreateUsage(r.Context(), userID, month)
			if err != nil {
				http.Error(w, `{"error":"failed to load usage","code":"internal_error"}`, http.StatusInternalServerError)
				return
			}

			if usage.PlaylistsCreated >= freeLimit {
				logging.LogSecurityEvent(r.Context(), logging.SecurityEventQuotaExceeded, "monthly playlist quota exhausted")
				body := fmt.Sprintf(
					`{"error":"free plan allows %d playlists per month","code":"quota_exceeded"}`, freeLimit)
				http.Error(w, body, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// hasUnlimitedQuota reports whether the user's subscription lifts the
// free plan limit.
func hasUnlimitedQuota(user *store.User) bool {
	if user.SubscriptionPlan != "free" &&
		(user.SubscriptionStatus == "active" || user.SubscriptionStatus == "trialing") {
		return true
	}
	// A trial recorded on a free account still counts until it lapses.
	if user.TrialEndDate.Valid && user.TrialEndDate.Time.After(time.Now()) {
		return true
	}
	return false
}
