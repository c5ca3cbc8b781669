package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/leonardobora/GeraAI/internal/billing"
	"github.com/leonardobora/GeraAI/internal/logging"
	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/models"
	"github.com/leonardobora/GeraAI/internal/store"
)

// maxWebhookBody bounds how much of a webhook payload is read.
const maxWebhookBody = 1 << 16

// BillingHandler exposes checkout, the customer portal, and the Stripe
// webhook endpoint.
type BillingHandler struct {
	store   *store.Store
	billing *billing.Service
}

func NewBillingHandler(s *store.Store, svc *billing.Service) *BillingHandler {
	return &BillingHandler{store: s, billing: svc}
}

// Checkout starts a subscription purchase and returns the hosted page URL.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.billing.Enabled() {
		writeError(w, http.StatusNotImplemented, "billing is not configured")
		return
	}
	userID := middleware.UserID(r.Context())

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Plan != "premium" && req.Plan != "pro" {
		writeError(w, http.StatusBadRequest, "plan must be premium or pro")
		return
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load account", err)
		return
	}

	url, err := h.billing.CreateCheckoutSession(r.Context(), user, req.Plan)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "failed to start checkout", err)
		return
	}
	writeJSON(w, http.StatusOK, models.CheckoutResponse{URL: url})
}

// Portal opens the Stripe customer portal for subscription management.
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	if !h.billing.Enabled() {
		writeError(w, http.StatusNotImplemented, "billing is not configured")
		return
	}
	userID := middleware.UserID(r.Context())

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusInternalServerError, "failed to load account", err)
		return
	}

	url, err := h.billing.CreatePortalSession(r.Context(), user)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadRequest, "failed to open billing portal", err)
		return
	}
	writeJSON(w, http.StatusOK, models.CheckoutResponse{URL: url})
}

// Webhook receives Stripe events. Signature failures are logged as
// security events since they indicate forged or misrouted deliveries.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	if err := h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		logging.LogSecurityEvent(r.Context(), logging.SecurityEventBadWebhookSig, "stripe webhook rejected")
		writeError(w, http.StatusBadRequest, "webhook rejected")
		return
	}
	w.WriteHeader(http.StatusOK)
}
