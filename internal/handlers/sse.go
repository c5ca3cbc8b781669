package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/leonardobora/GeraAI/internal/broker"
	"github.com/leonardobora/GeraAI/internal/middleware"
)

// SSEHandler serves Server-Sent Events streams for real-time playlist updates.
type SSEHandler struct {
	broker *broker.Broker
}

// NewSSEHandler creates an SSEHandler backed by the given broker.
func NewSSEHandler(b *broker.Broker) *SSEHandler {
	return &SSEHandler{broker: b}
}

// Stream opens an SSE connection for the authenticated user. It sends an
// initial "connected" event, then pushes "playlists_changed" each time the
// broker signals for this user. A heartbeat comment is sent every 30
// seconds to keep the connection alive through proxies.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch, cancel := h.broker.Subscribe(userID)
	defer cancel()

	// Send initial connected event
	fmt.Fprintf(w, "event: connected\ndata: ok\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			fmt.Fprintf(w, "event: playlists_changed\ndata: refresh\n\n")
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
