// admin.go - privacy-conscious project view tracking and the admin stats API
package main

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/zach-dev-api/internal/analytics"
)

// Middleware to check the admin bearer token. With no token configured the
// admin API does not exist.
func adminAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		header := c.GetHeader("Authorization")
		given, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Record a project view with a hashed client address
func (s *server) recordProjectView(c *gin.Context) {
	projectID := c.Param("id")
	if !analytics.ValidProjectID(projectID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project id"})
		return
	}

	if !s.viewLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
		return
	}

	// Respect Do Not Track header
	if c.GetHeader("DNT") == "1" {
		c.Status(http.StatusNoContent)
		return
	}

	err := s.views.RecordView(c.Request.Context(), analytics.View{
		ProjectID: projectID,
		HashedIP:  s.hasher.Sum(c.ClientIP()),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
		ViewedAt:  s.now(),
	})
	if err != nil {
		s.logger.Error("Error recording project view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record view"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "View recorded"})
}

func (s *server) viewStats(c *gin.Context) {
	stats, err := s.views.Stats(c.Request.Context(), s.now())
	if err != nil {
		s.logger.Error("Error loading view stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	s.logger.Info("View stats read by %s", s.hasher.Sum(c.ClientIP()))
	c.JSON(http.StatusOK, stats)
}

// Setup project view and admin analytics routes
func setupAnalyticsRoutes(api *gin.RouterGroup, s *server) {
	api.POST("/projects/:id/view", s.recordProjectView)

	adminGroup := api.Group("/analytics")
	adminGroup.Use(adminAuthMiddleware(s.cfg.Analytics.AdminToken))
	adminGroup.GET("/views", s.viewStats)
}
