// Package billing integrates Stripe subscriptions: checkout, the customer
// portal, and webhook-driven plan updates.
package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	portalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/subscription"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/leonardobora/GeraAI/internal/store"
)

// Service owns the Stripe integration. A zero webhook secret disables
// webhook processing; a zero secret key disables checkout.
type Service struct {
	store          *store.Store
	webhookSecret  string
	premiumPriceID string
	proPriceID     string
	frontendURL    string

	// fetchSubscription is swapped out in tests.
	fetchSubscription func(id string) (*stripe.Subscription, error)
}

type Config struct {
	SecretKey      string
	WebhookSecret  string
	PremiumPriceID string
	ProPriceID     string
	FrontendURL    string
}

func New(s *store.Store, cfg Config) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{
		store:          s,
		webhookSecret:  cfg.WebhookSecret,
		premiumPriceID: cfg.PremiumPriceID,
		proPriceID:     cfg.ProPriceID,
		frontendURL:    cfg.FrontendURL,
		fetchSubscription: func(id string) (*stripe.Subscription, error) {
			return subscription.Get(id, nil)
		},
	}
}

// Enabled reports whether billing is configured at all.
func (s *Service) Enabled() bool {
	return stripe.Key != ""
}

// planForPrice maps a Stripe price to the internal plan name.
func (s *Service) planForPrice(priceID string) string {
	switch priceID {
	case s.premiumPriceID:
		return "premium"
	case s.proPriceID:
		return "pro"
	default:
		return "free"
	}
}

func (s *Service) priceForPlan(plan string) (string, error) {
	switch plan {
	case "premium":
		return s.premiumPriceID, nil
	case "pro":
		return s.proPriceID, nil
	default:
		return "", fmt.Errorf("unknown plan %q", plan)
	}
}

// CreateCheckoutSession starts a subscription checkout for the user,
// creating the Stripe customer on first use.
func (s *Service) CreateCheckoutSession(ctx context.Context, user *store.User, plan string) (string, error) {
	priceID, err := s.priceForPlan(plan)
	if err != nil {
		return "", err
	}

	customerID := user.StripeCustomerID.String
	if customerID == "" {
		params := &stripe.CustomerParams{}
		if user.Email.Valid {
			params.Email = stripe.String(user.Email.String)
		}
		params.AddMetadata("userId", user.ID)

		c, err := customer.New(params)
		if err != nil {
			return "", fmt.Errorf("failed to create stripe customer: %w", err)
		}
		customerID = c.ID
		if err := s.store.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			return "", err
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID: stripe.String(user.ID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": user.ID},
		},
		SuccessURL: stripe.String(s.frontendURL + "/?subscription_success=true&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.frontendURL + "/?subscription_canceled=true"),
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

// CreatePortalSession opens the Stripe customer portal for plan management.
func (s *Service) CreatePortalSession(ctx context.Context, user *store.User) (string, error) {
	if !user.StripeCustomerID.Valid || user.StripeCustomerID.String == "" {
		return "", fmt.Errorf("user has no billing account")
	}

	session, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID.String),
		ReturnURL: stripe.String(s.frontendURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

// HandleWebhook verifies the signature and applies the event.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return s.ProcessEvent(ctx, event)
}

// ProcessEvent applies one verified Stripe event to the user's subscription
// state. Unhandled event types are acknowledged without action.
func (s *Service) ProcessEvent(ctx context.Context, event stripe.Event) error {
	switch string(event.Type) {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("failed to decode checkout session: %w", err)
		}
		if cs.Mode != stripe.CheckoutSessionModeSubscription || cs.Subscription == nil || cs.ClientReferenceID == "" {
			return nil
		}

		sub, err := s.fetchSubscription(cs.Subscription.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch subscription: %w", err)
		}
		customerID := ""
		if cs.Customer != nil {
			customerID = cs.Customer.ID
		}
		return s.applySubscription(ctx, cs.ClientReferenceID, customerID, sub)

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("failed to decode invoice: %w", err)
		}
		if inv.Subscription == nil {
			return nil
		}

		sub, err := s.fetchSubscription(inv.Subscription.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch subscription: %w", err)
		}
		userID := sub.Metadata["userId"]
		if userID == "" {
			slog.WarnContext(ctx, "Invoice subscription missing userId metadata", "subscription_id", sub.ID)
			return nil
		}
		customerID := ""
		if inv.Customer != nil {
			customerID = inv.Customer.ID
		}
		return s.applySubscription(ctx, userID, customerID, sub)

	case "customer.subscription.updated":
		sub, err := decodeSubscription(event)
		if err != nil {
			return err
		}
		userID := sub.Metadata["userId"]
		if userID == "" {
			slog.WarnContext(ctx, "Subscription update missing userId metadata", "subscription_id", sub.ID)
			return nil
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		return s.applySubscription(ctx, userID, customerID, sub)

	case "customer.subscription.deleted":
		sub, err := decodeSubscription(event)
		if err != nil {
			return err
		}
		userID := sub.Metadata["userId"]
		if userID == "" {
			slog.WarnContext(ctx, "Subscription delete missing userId metadata", "subscription_id", sub.ID)
			return nil
		}
		return s.cancelSubscription(ctx, userID)

	default:
		slog.DebugContext(ctx, "Ignoring stripe event", "type", string(event.Type))
		return nil
	}
}

func decodeSubscription(event stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription: %w", err)
	}
	return &sub, nil
}

// applySubscription writes the subscription's plan, status, and dates to
// the user record.
func (s *Service) applySubscription(ctx context.Context, userID, customerID string, sub *stripe.Subscription) error {
	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("webhook references unknown user %s: %w", userID, err)
	}
	if customerID == "" {
		customerID = user.StripeCustomerID.String
	}

	upd := store.SubscriptionUpdate{
		Plan:                 s.planForPrice(priceID),
		Status:               string(sub.Status),
		StripeCustomerID:     sql.NullString{String: customerID, Valid: customerID != ""},
		StripeSubscriptionID: sql.NullString{String: sub.ID, Valid: sub.ID != ""},
	}
	if sub.CurrentPeriodEnd > 0 {
		upd.SubscriptionEndDate = sql.NullTime{Time: time.Unix(sub.CurrentPeriodEnd, 0).UTC(), Valid: true}
	}
	if sub.TrialEnd > 0 {
		upd.TrialEndDate = sql.NullTime{Time: time.Unix(sub.TrialEnd, 0).UTC(), Valid: true}
	}
	return s.store.UpdateSubscription(ctx, userID, upd)
}

// cancelSubscription drops the user back to the free plan.
func (s *Service) cancelSubscription(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("webhook references unknown user %s: %w", userID, err)
	}

	return s.store.UpdateSubscription(ctx, userID, store.SubscriptionUpdate{
		Plan:             "free",
		Status:           "canceled",
		StripeCustomerID: user.StripeCustomerID,
	})
}
