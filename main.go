package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Zachkp/zach-dev-api/internal/analytics"
	"github.com/Zachkp/zach-dev-api/internal/config"
	"github.com/Zachkp/zach-dev-api/internal/contact"
	"github.com/Zachkp/zach-dev-api/internal/logging"
	"github.com/Zachkp/zach-dev-api/internal/mail"
	"github.com/Zachkp/zach-dev-api/internal/ratelimit"
	"github.com/Zachkp/zach-dev-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher, err := analytics.NewHasher(cfg.Analytics.HashSalt)
	if err != nil {
		return err
	}
	if cfg.Analytics.HashSalt == "" {
		logger.Warn("IP_HASH_SALT not set: using a random salt, hashed IPs will not match across restarts")
	}

	views, err := analytics.NewStore(ctx, db)
	if err != nil {
		return err
	}
	go analytics.NewRetention(views, logger, cfg.Analytics.Retention).Run(ctx)

	store, err := newRateLimitStore(ctx, cfg, db, hasher)
	if err != nil {
		return err
	}
	go ratelimit.RunJanitor(ctx, store, cfg.RateLimit.Window, cfg.RateLimit.Window, time.Now, func(err error) {
		logger.Error("Rate limit sweep failed: %v", err)
	})

	if err := cfg.Mail.Validate(); err != nil {
		logger.Warn("Contact form will answer 503 until configured: %v", err)
	}

	s := &server{
		cfg:    cfg,
		logger: logger,
		contact: contact.NewService(
			ratelimit.New(store, cfg.RateLimit.Window, cfg.RateLimit.PerClient),
			ratelimit.New(store, cfg.RateLimit.Window, cfg.RateLimit.PerEmail),
			mail.NewSMTPMailer(cfg.Mail),
			cfg.Mail,
			logger,
		),
		views:       views,
		hasher:      hasher,
		viewLimiter: rate.NewLimiter(rate.Limit(cfg.Analytics.ViewRPS), cfg.Analytics.ViewBurst),
		now:         time.Now,
	}

	router, err := s.routes()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server in %s mode on :%s", cfg.Environment, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type rateLimitStore interface {
	ratelimit.Store
	ratelimit.Sweeper
}

func newRateLimitStore(ctx context.Context, cfg *config.Config, db *sql.DB, hasher *analytics.Hasher) (rateLimitStore, error) {
	if cfg.RateLimit.Store == "sqlite" {
		return ratelimit.NewSQLiteStore(ctx, db, hasher.Sum)
	}
	return ratelimit.NewMemoryStore(), nil
}
