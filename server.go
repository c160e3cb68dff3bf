package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Zachkp/zach-dev-api/internal/analytics"
	"github.com/Zachkp/zach-dev-api/internal/config"
	"github.com/Zachkp/zach-dev-api/internal/contact"
	"github.com/Zachkp/zach-dev-api/internal/logging"
	"github.com/Zachkp/zach-dev-api/internal/middleware"
)

// server holds everything the HTTP handlers need.
type server struct {
	cfg         *config.Config
	logger      *logging.Logger
	contact     *contact.Service
	views       *analytics.Store
	hasher      *analytics.Hasher
	viewLimiter *rate.Limiter
	now         func() time.Time
}

func (s *server) routes() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(middleware.RequestID())
	if s.cfg.Log.Requests {
		r.Use(middleware.Logger(s.logger, s.hasher.Sum))
	}
	r.Use(
		middleware.Recovery(s.logger),
		middleware.SecurityHeaders(),
		middleware.CORS(s.cfg.AllowedOrigins),
	)

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.POST("/contact", s.submitContact)
	setupAnalyticsRoutes(api, s)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r, nil
}

func (s *server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.views.Ping(ctx); err != nil {
		s.logger.Error("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
