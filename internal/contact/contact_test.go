package contact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/zach-dev-api/internal/config"
	"github.com/Zachkp/zach-dev-api/internal/logging"
	"github.com/Zachkp/zach-dev-api/internal/mail"
	"github.com/Zachkp/zach-dev-api/internal/mail/mailtest"
	"github.com/Zachkp/zach-dev-api/internal/ratelimit"
)

func valid() Submission {
	return Submission{Name: "Jane", Email: "jane@x.com", Message: "Hi\nthere"}
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		modify func(*Submission)
		want   error
	}{
		{"valid", func(*Submission) {}, nil},
		{"missing name", func(s *Submission) { s.Name = "" }, ErrMissingFields},
		{"missing email", func(s *Submission) { s.Email = "" }, ErrMissingFields},
		{"missing message", func(s *Submission) { s.Message = "" }, ErrMissingFields},
		{"name too long", func(s *Submission) { s.Name = strings.Repeat("n", 101) }, ErrFieldTooLong},
		{"name at limit", func(s *Submission) { s.Name = strings.Repeat("n", 100) }, nil},
		{"email too long", func(s *Submission) { s.Email = strings.Repeat("e", 95) + "@x.com" }, ErrFieldTooLong},
		{"message too long", func(s *Submission) { s.Message = strings.Repeat("m", 2001) }, ErrFieldTooLong},
		{"message at limit in runes", func(s *Submission) { s.Message = strings.Repeat("é", 2000) }, nil},
		{"email without at", func(s *Submission) { s.Email = "abc" }, ErrInvalidEmail},
		{"email without tld", func(s *Submission) { s.Email = "a@b" }, ErrInvalidEmail},
		{"email with space", func(s *Submission) { s.Email = "a b@c.com" }, ErrInvalidEmail},
		{"email with two ats", func(s *Submission) { s.Email = "a@b@c.com" }, ErrInvalidEmail},
		{"honeypot beats valid fields", func(s *Submission) { s.Honeypot = "x" }, ErrHoneypot},
		{"honeypot beats missing fields", func(s *Submission) { *s = Submission{Honeypot: "bot"} }, ErrHoneypot},
		{"missing beats too long", func(s *Submission) { s.Email = ""; s.Message = strings.Repeat("m", 3000) }, ErrMissingFields},
		{"too long beats bad email", func(s *Submission) { s.Email = "bad"; s.Name = strings.Repeat("n", 200) }, ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.modify(&s)
			err := v.Validate(&s)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Same(t, tt.want, err)
		})
	}
}

func TestCompose(t *testing.T) {
	cfg := config.MailConfig{Recipient: "owner@example.com", Sender: "relay@example.com"}
	s := Submission{Name: `<b>Jane</b> & "co"`, Email: "jane@x.com", Message: "Hi\nthere <script>"}

	msg := Compose(&s, cfg)

	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "jane@x.com", msg.ReplyTo)
	assert.Equal(t, `Portfolio Contact: <b>Jane</b> & "co"`, msg.Subject)
	assert.Contains(t, msg.From, "relay@example.com")
	assert.Contains(t, msg.Text, "Name: <b>Jane</b> & \"co\"")
	assert.Contains(t, msg.Text, "Email: jane@x.com")
	assert.Contains(t, msg.Text, "Message:\nHi\nthere <script>")
	assert.Contains(t, msg.HTML, "&lt;b&gt;Jane&lt;/b&gt; &amp; &quot;co&quot;")
	assert.Contains(t, msg.HTML, "Hi<br>there &lt;script&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestComposeStripsNewlinesFromSubject(t *testing.T) {
	s := valid()
	s.Name = "Jane\r\nBcc: x@y.com"
	msg := Compose(&s, config.MailConfig{})
	assert.NotContains(t, msg.Subject, "\n")
	assert.NotContains(t, msg.Subject, "\r")
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;&gt;&amp;&quot;&#x27;", EscapeHTML(`<>&"'`))
	assert.Equal(t, "&amp;lt;", EscapeHTML("&lt;"))
}

type fixture struct {
	svc    *Service
	mailer *mailtest.Recorder
}

func newFixture(t *testing.T, mailCfg config.MailConfig) *fixture {
	t.Helper()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := ratelimit.NewMemoryStore()
	rec := &mailtest.Recorder{}
	svc := NewService(
		ratelimit.New(store, 15*time.Minute, 5, ratelimit.WithClock(clock)),
		ratelimit.New(store, 15*time.Minute, 2, ratelimit.WithClock(clock)),
		rec,
		mailCfg,
		logging.Discard(),
	)
	return &fixture{svc: svc, mailer: rec}
}

func configured() config.MailConfig {
	return config.MailConfig{
		Recipient: "owner@example.com",
		Sender:    "relay@example.com",
		Password:  "pw",
		Host:      "smtp.example.com",
		Port:      587,
	}
}

func TestServiceSubmit(t *testing.T) {
	f := newFixture(t, configured())
	s := valid()

	require.NoError(t, f.svc.Submit(context.Background(), &s))

	msgs := f.mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Name: Jane")
	assert.Contains(t, msgs[0].Text, "Email: jane@x.com")
	assert.Contains(t, msgs[0].HTML, "Hi<br>there")
}

func TestServicePerEmailLimitIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, configured())
	ctx := context.Background()

	for _, email := range []string{"Jane@X.com", "jane@x.com"} {
		s := valid()
		s.Email = email
		require.NoError(t, f.svc.Submit(ctx, &s))
	}

	s := valid()
	s.Email = "JANE@x.COM"
	err := f.svc.Submit(ctx, &s)
	assert.Same(t, ErrTooManyFromEmail, err)
	assert.Len(t, f.mailer.Messages(), 2)
}

func TestServiceCheckClient(t *testing.T) {
	f := newFixture(t, configured())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, f.svc.CheckClient(ctx, ClientKey("1.2.3.4")))
	}
	assert.Same(t, ErrTooManyFromClient, f.svc.CheckClient(ctx, ClientKey("1.2.3.4")))
	assert.NoError(t, f.svc.CheckClient(ctx, ClientKey("4.3.2.1")))
}

func TestServiceNotConfigured(t *testing.T) {
	cfg := configured()
	cfg.Recipient = ""
	f := newFixture(t, cfg)
	s := valid()

	err := f.svc.Submit(context.Background(), &s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrNotConfigured))
	assert.Empty(t, f.mailer.Messages())
}

func TestServiceSendFailure(t *testing.T) {
	f := newFixture(t, configured())
	f.mailer.Err = fmt.Errorf("%w: connection refused", mail.ErrSend)
	s := valid()

	err := f.svc.Submit(context.Background(), &s)
	assert.True(t, errors.Is(err, mail.ErrSend))

	var rej *Rejection
	assert.False(t, errors.As(err, &rej))
}

func TestRejectionStatuses(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, ErrBodyTooLarge.Status)
	assert.Equal(t, http.StatusTooManyRequests, ErrTooManyFromClient.Status)
	assert.Equal(t, http.StatusTooManyRequests, ErrTooManyFromEmail.Status)
	assert.Equal(t, http.StatusBadRequest, ErrHoneypot.Status)
	assert.Equal(t, "Invalid submission", ErrHoneypot.Message)
}
