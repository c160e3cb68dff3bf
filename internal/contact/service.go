package contact

import (
	"context"
	"strings"

	"github.com/Zachkp/zach-dev-api/internal/config"
	"github.com/Zachkp/zach-dev-api/internal/logging"
	"github.com/Zachkp/zach-dev-api/internal/mail"
	"github.com/Zachkp/zach-dev-api/internal/ratelimit"
)

// ClientKey is the rate limit key for a client address.
func ClientKey(ip string) string {
	return "ip:" + ip
}

// EmailKey is the rate limit key for a submitter address, compared
// case-insensitively.
func EmailKey(email string) string {
	return "email:" + strings.ToLower(email)
}

// Service relays validated submissions to the configured mailbox.
type Service struct {
	validator *Validator
	clients   *ratelimit.Limiter
	emails    *ratelimit.Limiter
	mailer    mail.Mailer
	mailCfg   config.MailConfig
	logger    *logging.Logger
}

func NewService(clients, emails *ratelimit.Limiter, mailer mail.Mailer, mailCfg config.MailConfig, logger *logging.Logger) *Service {
	return &Service{
		validator: NewValidator(),
		clients:   clients,
		emails:    emails,
		mailer:    mailer,
		mailCfg:   mailCfg,
		logger:    logger,
	}
}

// CheckClient applies the per-client limit. An admitted attempt is counted
// even if the submission is rejected later.
func (s *Service) CheckClient(ctx context.Context, key string) error {
	d, err := s.clients.Allow(ctx, key)
	if err != nil {
		s.logger.Error("Client rate limit store error: %v", err)
	}
	if !d.Allowed {
		return ErrTooManyFromClient
	}
	return nil
}

// Submit validates sub, applies the per-email limit and sends exactly one
// email. It returns a *Rejection for caller mistakes, a config.ErrNotConfigured
// error when mail is not set up, and a mail.ErrSend error on transport failure.
// Nothing is retried.
func (s *Service) Submit(ctx context.Context, sub *Submission) error {
	if err := s.validator.Validate(sub); err != nil {
		return err
	}

	d, err := s.emails.Allow(ctx, EmailKey(sub.Email))
	if err != nil {
		s.logger.Error("Email rate limit store error: %v", err)
	}
	if !d.Allowed {
		return ErrTooManyFromEmail
	}

	if err := s.mailCfg.Validate(); err != nil {
		s.logger.Error("Contact relay unavailable: %v", err)
		return err
	}

	if err := s.mailer.Send(ctx, Compose(sub, s.mailCfg)); err != nil {
		s.logger.Error("Error sending contact email: %v", err)
		return err
	}

	s.logger.Info("Contact message relayed (%d chars)", len([]rune(sub.Message)))
	return nil
}
