package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/leonardobora/GeraAI/internal/ai"
	"github.com/leonardobora/GeraAI/internal/billing"
	"github.com/leonardobora/GeraAI/internal/broker"
	"github.com/leonardobora/GeraAI/internal/config"
	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/handlers"
	"github.com/leonardobora/GeraAI/internal/middleware"
	"github.com/leonardobora/GeraAI/internal/services"
	"github.com/leonardobora/GeraAI/internal/spotify"
	"github.com/leonardobora/GeraAI/internal/store"
)

func New(cfg *config.Config, s *store.Store, sealer *crypto.Sealer) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	realIP := middleware.NewRealIPMiddleware(cfg.TrustedProxies)
	r.Use(chimiddleware.Recoverer)
	r.Use(realIP.Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Services
	authService := services.NewAuthService(cfg.AppSecret, cfg.TokenDuration)
	shareLinkService := services.NewShareLinkService(s)
	generationLimiter := services.NewGenerationLimiter(cfg.GenerationLimitPerHour)
	spotifyClient := spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURI)
	providerFactory := ai.NewFactory(ai.DefaultKeys{
		Perplexity: cfg.PerplexityAPIKey,
		OpenAI:     cfg.OpenAIAPIKey,
		Gemini:     cfg.GeminiAPIKey,
	})
	eventBroker := broker.New()
	generator := services.NewGenerator(s, sealer, providerFactory, spotifyClient, generationLimiter, eventBroker.Notify)
	billingService := billing.New(s, billing.Config{
		SecretKey:      cfg.StripeSecretKey,
		WebhookSecret:  cfg.StripeWebhookSecret,
		PremiumPriceID: cfg.StripePremiumPriceID,
		ProPriceID:     cfg.StripeProPriceID,
		FrontendURL:    cfg.FrontendURL,
	})

	// Handlers
	authHandler := handlers.NewAuthHandler(s, authService, spotifyClient, sealer, generationLimiter, cfg)
	playlistHandler := handlers.NewPlaylistHandler(s, generator)
	shareHandler := handlers.NewShareHandler(s, shareLinkService, cfg.ShareBaseURL)
	settingsHandler := handlers.NewSettingsHandler(s, sealer)
	searchHandler := handlers.NewSearchHandler(s, sealer, spotifyClient)
	billingHandler := handlers.NewBillingHandler(s, billingService)
	configHandler := handlers.NewConfigHandler(cfg)
	sseHandler := handlers.NewSSEHandler(eventBroker)

	// Rate limiter for catalog search
	searchRateLimiter := middleware.NewRateLimiter(cfg.SearchRateLimitPerMinute)

	requireAuth := middleware.AuthMiddleware(authService)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handlers.Health)

		// Public configuration
		r.Get("/config", configHandler.Get)

		// OAuth flow (no auth)
		r.Get("/auth/spotify/login", authHandler.Login)
		r.Get("/auth/spotify/callback", authHandler.Callback)

		// Public shared playlist snapshots
		r.Get("/shared/{token}", shareHandler.GetShared)

		// Stripe webhook (signature-verified, no JWT)
		r.Post("/billing/webhook", billingHandler.Webhook)

		// Authenticated account routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/spotify/disconnect", authHandler.Disconnect)

			r.Get("/settings/ai", settingsHandler.Get)
			r.Put("/settings/ai", settingsHandler.Update)

			r.Route("/playlists", func(r chi.Router) {
				r.Get("/", playlistHandler.List)
				r.With(middleware.SubscriptionQuota(s, cfg.FreePlanPlaylistLimit)).
					Post("/generate", playlistHandler.Generate)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", playlistHandler.Get)
					r.Delete("/", playlistHandler.Delete)
					r.Post("/share", shareHandler.Create)
				})
			})

			// Catalog search (rate limited per IP)
			r.With(searchRateLimiter.Middleware).Get("/spotify/search", searchHandler.Search)

			r.Get("/events", sseHandler.Stream)

			r.Post("/billing/checkout", billingHandler.Checkout)
			r.Post("/billing/portal", billingHandler.Portal)
		})
	})

	return r
}
