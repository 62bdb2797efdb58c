// Package ses delivers email through Amazon SES (API v2).
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"mailtemplate/internal/mailer"
)

const charset = "UTF-8"

// API is the part of the SES v2 client the sender needs.
type API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Config holds the SES sender settings.
type Config struct {
	// From is used when an email does not set its own sender.
	From string

	// ConfigurationSet is attached to every email when set.
	ConfigurationSet string
}

// Sender implements mailer.Sender on SES.
type Sender struct {
	client API
	config Config
	logger *zap.Logger
}

// New creates a sender. A nil logger disables logging.
func New(client API, cfg Config, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{client: client, config: cfg, logger: logger}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := email.Validate(); err != nil {
		return err
	}

	from := email.From
	if from == "" {
		from = s.config.From
	}

	body := &types.Body{
		Html: &types.Content{Data: aws.String(email.HTML), Charset: aws.String(charset)},
	}
	if email.Text != "" {
		body.Text = &types.Content{Data: aws.String(email.Text), Charset: aws.String(charset)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: email.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String(charset)},
				Body:    body,
			},
		},
	}
	if email.ReplyTo != "" {
		input.ReplyToAddresses = []string{email.ReplyTo}
	}
	if s.config.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(s.config.ConfigurationSet)
	}
	for name, value := range email.Headers {
		input.Content.Simple.Headers = append(input.Content.Simple.Headers, types.MessageHeader{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return wrapError(err)
	}

	s.logger.Debug("ses accepted email",
		zap.String("message_id", aws.ToString(out.MessageId)),
		zap.Strings("to", email.To),
	)
	return nil
}

// wrapError maps SES failures onto mailer.ErrSendFailed, keeping the
// rejection reason in the message.
func wrapError(err error) error {
	var rejected *types.MessageRejected
	if errors.As(err, &rejected) {
		return fmt.Errorf("%w: ses rejected message: %v", mailer.ErrSendFailed, err)
	}

	var paused *types.SendingPausedException
	if errors.As(err, &paused) {
		return fmt.Errorf("%w: ses sending paused: %v", mailer.ErrSendFailed, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: ses %s: %v", mailer.ErrSendFailed, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("%w: ses: %v", mailer.ErrSendFailed, err)
}
