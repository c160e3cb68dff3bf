package contact

import (
	"fmt"
	"strings"

	"github.com/Zachkp/zach-dev-api/internal/config"
	"github.com/Zachkp/zach-dev-api/internal/mail"
)

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// EscapeHTML escapes the five HTML-significant characters.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Compose builds the notification email for an accepted submission.
func Compose(s *Submission, cfg config.MailConfig) mail.Message {
	name := strings.NewReplacer("\r", " ", "\n", " ").Replace(s.Name)
	return mail.Message{
		From:    mail.Address("Portfolio Contact", cfg.Sender),
		To:      cfg.Recipient,
		ReplyTo: s.Email,
		Subject: "Portfolio Contact: " + name,
		Text:    fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", s.Name, s.Email, s.Message),
		HTML: fmt.Sprintf(`<h3>New Portfolio Contact Form Submission</h3>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>
`, EscapeHTML(s.Name), EscapeHTML(s.Email), strings.ReplaceAll(EscapeHTML(s.Message), "\n", "<br>")),
	}
}
