// Package mail sends outbound email.
package mail

import (
	"context"
	"errors"
)

// ErrSend wraps every transport-level failure returned by a Mailer.
var ErrSend = errors.New("mail send failed")

// Message is a single outbound email with plain-text and HTML bodies.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages. Implementations make one attempt per call and
// do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
