package handlers

import (
	"net/http"

	"github.com/leonardobora/GeraAI/internal/config"
	"github.com/leonardobora/GeraAI/internal/models"
)

// ConfigHandler exposes the public runtime configuration so the frontend
// can hide unconfigured features.
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ConfigResponse{
		SpotifyAuthEnabled: h.cfg.SpotifyClientID != "",
		BillingEnabled:     h.cfg.StripeSecretKey != "",
		FrontendURL:        h.cfg.FrontendURL,
	})
}

// Health reports liveness for load balancers.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
