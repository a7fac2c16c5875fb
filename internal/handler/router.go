package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/msomdec/askhub/internal/policy"
	"github.com/msomdec/askhub/internal/service"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Auth          *service.AuthService
	Reset         *service.ResetService
	Questions     *service.QuestionService
	Posts         *service.PostService
	Subscriptions *service.SubscriptionService
	Profiles      *service.ProfileService
	Policy        *policy.Policy

	// Limiter throttles the unauthenticated credential endpoints per IP.
	Limiter      *service.TokenBucket
	CookieSecure bool
	CORSOrigins  []string
	// UsageRefresh is the usage stream tick. Zero means 30 seconds.
	UsageRefresh time.Duration
}

// NewRouter wires every route onto a chi router.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.Reset, d.CookieSecure)
	questionHandler := NewQuestionHandler(d.Questions, d.Policy, d.UsageRefresh)
	postHandler := NewPostHandler(d.Posts)
	subscriptionHandler := NewSubscriptionHandler(d.Subscriptions)
	profileHandler := NewProfileHandler(d.Profiles)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(SecurityHeaders)

	r.Get("/healthz", HandleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.Limiter != nil {
					r.Use(RateLimit(d.Limiter))
				}
				r.Post("/register", authHandler.HandleRegister)
				r.Post("/login", authHandler.HandleLogin)
				r.Post("/password-reset", authHandler.HandlePasswordReset)
				r.Post("/password-reset/confirm", authHandler.HandlePasswordResetConfirm)
			})

			r.With(OptionalAuth(d.Auth)).Post("/logout", authHandler.HandleLogout)
			r.With(RequireAuth(d.Auth)).Get("/me", authHandler.HandleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Auth))

			r.Route("/questions", func(r chi.Router) {
				r.Get("/", questionHandler.HandleList)
				r.Post("/", questionHandler.HandleCreate)
				r.Get("/usage", questionHandler.HandleUsage)
				r.Get("/usage/stream", questionHandler.HandleUsageStream)
				r.Get("/{id}/video", questionHandler.HandleVideo)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.HandleFeed)
				r.Post("/", postHandler.HandleCreate)
				r.Get("/usage", postHandler.HandleUsage)
				r.Post("/{id}/like", postHandler.HandleLike)
				r.Post("/{id}/comments", postHandler.HandleComment)
			})

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", subscriptionHandler.HandleCurrent)
				r.Get("/plans", subscriptionHandler.HandlePlans)
				r.Post("/checkout", subscriptionHandler.HandleCheckout)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", profileHandler.HandleGet)
				r.Patch("/", profileHandler.HandleUpdate)
				r.Put("/language", profileHandler.HandleSetLanguage)
				r.Post("/location", profileHandler.HandleLocation)
				r.Get("/logins", profileHandler.HandleLogins)
			})
		})
	})

	return r
}
