// Package smtp delivers email over SMTP.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"
	"go.uber.org/zap"

	"mailtemplate/internal/mailer"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// TLSMode is "auto", "starttls", "ssl" or "none".
	TLSMode string
}

// Dialer sends prepared messages. *mail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Sender implements mailer.Sender over SMTP.
type Sender struct {
	config Config
	dialer Dialer
	logger *zap.Logger
}

// New creates a sender dialing cfg.Host for every email.
func New(cfg Config, logger *zap.Logger) *Sender {
	return NewWithDialer(cfg, newDialer(cfg), logger)
}

// NewWithDialer creates a sender using d.
func NewWithDialer(cfg Config, d Dialer, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		config: cfg,
		dialer: d,
		logger: logger.With(zap.String("component", "smtp"), zap.String("host", cfg.Host), zap.Int("port", cfg.Port)),
	}
}

func newDialer(cfg Config) *mail.Dialer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}

	switch cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// auto: STARTTLS when the server offers it
	}
	return d
}

// Send implements mailer.Sender. go-mail has no context support, so ctx is
// only checked before dialing.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := email.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(email)
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("smtp send failed", zap.Strings("to", email.To), zap.Error(err))
		return fmt.Errorf("%w: smtp: %v", mailer.ErrSendFailed, err)
	}

	s.logger.Debug("email sent", zap.Strings("to", email.To))
	return nil
}

func (s *Sender) buildMessage(email *mailer.Email) *mail.Message {
	from := email.From
	if from == "" {
		from = s.config.From
	}

	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}
	for name, value := range email.Headers {
		m.SetHeader(name, value)
	}

	// multipart/alternative when a text part exists
	if email.Text != "" {
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	} else {
		m.SetBody("text/html", email.HTML)
	}
	return m
}
