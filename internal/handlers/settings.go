package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/store"
)

// SettingsHandler manages the user's AI provider preferences. Stored keys
// are sealed at rest and never returned to the client.
type SettingsHandler struct {
	store  *store.Store
	sealer *crypto.Sealer
}

func NewSettingsHandler(s *store.Store, sealer *crypto.Sealer) *SettingsHandler {
	return &SettingsHandler{store: s, sealer: sealer}
}

// Get reports the provider selection and which keys are configured.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}

	writeJSON(w, http.StatusOK, models.AISettingsResponse{
		Provider:         user.AIProvider,
		HasPerplexityKey: user.PerplexityAPIKey != "",
		HasOpenAIKey:     user.OpenAIAPIKey != "",
		HasGeminiKey:     user.GeminiAPIKey != "",
	})
}

// Update changes the provider and/or keys. A key field set to "" clears
// the stored key; an omitted field keeps it.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req models.AISettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Provider {
	case "perplexity", "openai", "gemini":
	default:
		writeError(w, http.StatusBadRequest, "provider must be perplexity, openai, or gemini")
		return
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}

	perplexityKey, err := h.sealedKey(req.PerplexityAPIKey, user.PerplexityAPIKey)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to seal api key", err)
		return
	}
	openaiKey, err := h.sealedKey(req.OpenAIAPIKey, user.OpenAIAPIKey)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to seal api key", err)
		return
	}
	geminiKey, err := h.sealedKey(req.GeminiAPIKey, user.GeminiAPIKey)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to seal api key", err)
		return
	}

	if err := h.store.UpdateAISettings(r.Context(), userID, req.Provider, perplexityKey, openaiKey, geminiKey); err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to update settings", err)
		return
	}
	h.Get(w, r)
}

// sealedKey seals a submitted key, keeps the current one when the field
// is omitted, and clears it when the field is an empty string.
func (h *SettingsHandler) sealedKey(submitted *string, current string) (string, error) {
	if submitted == nil {
		return current, nil
	}
	if *submitted == "" {
		return "", nil
	}
	return h.sealer.Seal(*submitted)
}
