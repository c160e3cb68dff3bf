package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/Zachkp/zach-dev-api/internal/config"
)

// SMTPMailer sends mail through an authenticated SMTP relay. STARTTLS is used
// when the server offers it; port 465 gets implicit TLS.
type SMTPMailer struct {
	cfg config.MailConfig
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send makes a single delivery attempt bounded by the configured timeout.
// A missing setting yields a config.ErrNotConfigured error; everything else
// wraps ErrSend.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	raw, err := msg.Bytes()
	if err != nil {
		return fmt.Errorf("%w: render: %w", ErrSend, err)
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %w", ErrSend, m.cfg.Addr(), err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: greeting: %w", ErrSend, err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("%w: starttls: %w", ErrSend, err)
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("%w: auth: %w", ErrSend, err)
		}
	}

	if err := c.Mail(m.cfg.Sender); err != nil {
		return fmt.Errorf("%w: mail from: %w", ErrSend, err)
	}
	if err := c.Rcpt(m.cfg.Recipient); err != nil {
		return fmt.Errorf("%w: rcpt to: %w", ErrSend, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %w", ErrSend, err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("%w: write body: %w", ErrSend, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: end data: %w", ErrSend, err)
	}
	if err := c.Quit(); err != nil {
		return fmt.Errorf("%w: quit: %w", ErrSend, err)
	}
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	if m.cfg.Port == 465 {
		d := &tls.Dialer{Config: &tls.Config{ServerName: m.cfg.Host}}
		return d.DialContext(ctx, "tcp", m.cfg.Addr())
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", m.cfg.Addr())
}
