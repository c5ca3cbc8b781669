package services

import (
	"sync"
	"time"
)

// userWindow is one user's fixed-window counter state.
type userWindow struct {
	count       int
	windowStart time.Time
}

// GenerationLimiter caps playlist generations per user over a fixed
// one-hour window. The counter resets to zero once the window elapses,
// regardless of when within it the requests were made. State is
// in-memory; restarting the process resets it.
type GenerationLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*userWindow
}

func NewGenerationLimiter(limit int) *GenerationLimiter {
	return &GenerationLimiter{
		limit:   limit,
		window:  time.Hour,
		now:     time.Now,
		windows: make(map[string]*userWindow),
	}
}

// Allow reports whether the user may start a generation and, if so,
// records the attempt.
func (l *GenerationLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.currentWindow(userID)
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many generations the user has left in the window.
func (l *GenerationLimiter) Remaining(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.currentWindow(userID)
	if left := l.limit - w.count; left > 0 {
		return left
	}
	return 0
}

// currentWindow returns the user's window state, starting a fresh one on
// first use or when the previous window has elapsed. Caller holds the lock.
func (l *GenerationLimiter) currentWindow(userID string) *userWindow {
	now := l.now()
	w, ok := l.windows[userID]
	if !ok || now.Sub(w.windowStart) > l.window {
		w = &userWindow{windowStart: now}
		l.windows[userID] = w
	}
	return w
}
