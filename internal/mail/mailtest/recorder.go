// Package mailtest provides an in-memory mail.Mailer for tests.
package mailtest

import (
	"context"
	"sync"

	"github.com/Zachkp/zach-dev-api/internal/mail"
)

// Recorder keeps every message it is asked to send. When Err is set, Send
// returns it and records nothing.
type Recorder struct {
	mu       sync.Mutex
	messages []mail.Message
	Err      error
}

func (r *Recorder) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.messages...)
}
