package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/askhub/internal/config"
	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/handler"
	"github.com/msomdec/askhub/internal/mail"
	"github.com/msomdec/askhub/internal/payment"
	"github.com/msomdec/askhub/internal/policy"
	"github.com/msomdec/askhub/internal/repository/sqlite"
	"github.com/msomdec/askhub/internal/service"
	"github.com/msomdec/askhub/internal/weather"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	pol := policy.New(cfg.Policy, nil)

	var mailer domain.Mailer = mail.LogMailer{Logger: logger}
	if cfg.SendGridAPIKey != "" {
		mailer = mail.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom)
	} else {
		slog.Warn("SENDGRID_API_KEY not set, emails will be logged instead of sent")
	}
	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set, checkouts will fail")
	}
	if cfg.OpenWeatherAPIKey == "" {
		slog.Warn("OPENWEATHER_API_KEY not set, location lookups will fail")
	}

	authService := service.NewAuthService(db.Users(), db.Sessions(), db.LoginHistory(), cfg.JWTSecret, cfg.BcryptCost, cfg.SessionTTL)
	resetService := service.NewResetService(db.Users(), mailer, pol, cfg.JWTSecret, cfg.BcryptCost, cfg.AppBaseURL)
	questionService := service.NewQuestionService(db.Questions(), db.FileStore(), pol)
	postService := service.NewPostService(db.Posts(), pol)
	subscriptionService := service.NewSubscriptionService(payment.NewStripe(cfg.StripeSecretKey, cfg.StripeAPIBase, cfg.AppBaseURL), pol)
	profileService := service.NewProfileService(db.Users(), db.LoginHistory(), weather.NewOpenWeather(cfg.OpenWeatherAPIKey, cfg.OpenWeatherAPIBase))

	limiter := service.NewCredentialLimiter()
	defer limiter.Close()

	router := handler.NewRouter(handler.Deps{
		Auth:          authService,
		Reset:         resetService,
		Questions:     questionService,
		Posts:         postService,
		Subscriptions: subscriptionService,
		Profiles:      profileService,
		Policy:        pol,
		Limiter:       limiter,
		CookieSecure:  cfg.CookieSecure,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"upload_window", pol.Config().UploadWindow.String(),
			"payment_window", pol.Config().PaymentWindow.String(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
