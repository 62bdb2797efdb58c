// Package resend delivers email through the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"mailtemplate/internal/mailer"
)

// Config holds Resend settings.
type Config struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

// EmailsAPI is the part of the Resend client used here.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	emails EmailsAPI
	config Config
}

// New creates a sender with a Resend client for cfg.APIKey.
func New(cfg Config) *Sender {
	return NewWithClient(resend.NewClient(cfg.APIKey).Emails, cfg)
}

// NewWithClient creates a sender over an existing emails service.
func NewWithClient(emails EmailsAPI, cfg Config) *Sender {
	return &Sender{emails: emails, config: cfg}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := email.Validate(); err != nil {
		return err
	}

	from := email.From
	if from == "" {
		from = mailer.Address(s.config.SenderName, s.config.SenderEmail)
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
	}

	if _, err := s.emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("%w: resend: %v", mailer.ErrSendFailed, err)
	}
	return nil
}
