// Package contact validates contact form submissions and relays accepted ones
// to the site owner's mailbox.
package contact

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Request and field limits.
const (
	MaxBodyBytes     = 10 * 1024
	MaxNameLength    = 100
	MaxEmailLength   = 100
	MaxMessageLength = 2000
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submission is one contact form post. It lives for the duration of a request
// and is never stored.
type Submission struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=100,contactemail"`
	Message  string `json:"message" validate:"required,max=2000"`
	Honeypot string `json:"honeypot"`
}

// Rejection is a client-facing refusal. Status is the HTTP status to answer
// with and Message is safe to show to the user.
type Rejection struct {
	Status  int
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

var (
	ErrMissingContentLength = &Rejection{http.StatusBadRequest, "Content-Length header required"}
	ErrBodyTooLarge         = &Rejection{http.StatusRequestEntityTooLarge, "Message too large (max 10KB)"}
	ErrInvalidBody          = &Rejection{http.StatusBadRequest, "Invalid request body"}
	// ErrHoneypot does not name the trap field.
	ErrHoneypot      = &Rejection{http.StatusBadRequest, "Invalid submission"}
	ErrMissingFields = &Rejection{http.StatusBadRequest, "Please fill in all fields"}
	ErrFieldTooLong  = &Rejection{http.StatusBadRequest, "Field too long"}
	ErrInvalidEmail  = &Rejection{http.StatusBadRequest, "Please enter a valid email address"}

	ErrTooManyFromClient = &Rejection{http.StatusTooManyRequests, "Too many requests from this IP. Please try again later."}
	ErrTooManyFromEmail  = &Rejection{http.StatusTooManyRequests, "Too many messages from this email. Please try again later."}
)

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Validator checks submissions field by field.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Validate applies the checks in order: honeypot, presence of every field,
// length caps, then email shape. The first failing class wins.
func (v *Validator) Validate(s *Submission) error {
	if s.Honeypot != "" {
		return ErrHoneypot
	}

	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ErrInvalidBody
	}

	tags := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		tags[fe.Tag()] = true
	}
	switch {
	case tags["required"]:
		return ErrMissingFields
	case tags["max"]:
		return ErrFieldTooLong
	case tags["contactemail"]:
		return ErrInvalidEmail
	}
	return ErrInvalidBody
}
