package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/zach-dev-api/internal/config"
	"github.com/Zachkp/zach-dev-api/internal/contact"
)

// submitContact relays a JSON contact form post to the owner's mailbox.
func (s *server) submitContact(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.contact.CheckClient(ctx, contact.ClientKey(c.ClientIP())); err != nil {
		s.contactError(c, err)
		return
	}

	// ContentLength is -1 for chunked bodies and 0 when the header is absent
	if c.Request.ContentLength < 0 || (c.Request.ContentLength == 0 && c.GetHeader("Content-Length") == "") {
		s.contactError(c, contact.ErrMissingContentLength)
		return
	}
	if c.Request.ContentLength > contact.MaxBodyBytes {
		s.contactError(c, contact.ErrBodyTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, contact.MaxBodyBytes)

	var sub contact.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.contactError(c, contact.ErrBodyTooLarge)
			return
		}
		s.contactError(c, contact.ErrInvalidBody)
		return
	}

	if err := s.contact.Submit(ctx, &sub); err != nil {
		s.contactError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message sent successfully! I'll get back to you soon.",
	})
}

// contactError maps a relay error to its response. Only rejections carry a
// specific message; configuration and transport failures stay generic.
func (s *server) contactError(c *gin.Context, err error) {
	var rej *contact.Rejection
	switch {
	case errors.As(err, &rej):
		c.JSON(rej.Status, gin.H{"error": rej.Message})
	case errors.Is(err, config.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email service not configured"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message. Please try again."})
	}
}
