// Package mailer defines the outbound email contract and its shared checks.
// Provider adapters live in the subpackages.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrNoRecipient = errors.New("email must have at least one recipient")
	ErrNoSubject   = errors.New("email must have a subject")
	ErrNoContent   = errors.New("email must have HTML content")
	ErrSendFailed  = errors.New("failed to send email")
)

// Sender delivers a fully prepared email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Email is a message ready for delivery.
type Email struct {
	From    string // Overrides the provider's default sender
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Validate checks the fields every provider needs.
func (e *Email) Validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipient
	}
	for _, to := range e.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrNoRecipient, to, err)
		}
	}
	if strings.TrimSpace(e.Subject) == "" {
		return ErrNoSubject
	}
	if strings.TrimSpace(e.HTML) == "" {
		return ErrNoContent
	}
	return nil
}

// Address formats a name and address as "Name <address>".
func Address(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// LogSender writes emails to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, email *Email) error {
	if err := email.Validate(); err != nil {
		return err
	}
	s.logger.Info("email not sent, log provider",
		zap.String("from", email.From),
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.Int("html_bytes", len(email.HTML)),
	)
	s.logger.Debug("email body", zap.String("html", email.HTML))
	return nil
}
