package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailtemplate/internal/mailer"
	"mailtemplate/internal/metrics"
	"mailtemplate/pkg/templater"
)

// Renderer produces the HTML body for a message.
type Renderer interface {
	Render(ctx context.Context, req templater.Request) (string, error)
}

// MessageHandler processes one validated message.
type MessageHandler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Handler renders a message's template and sends the result.
type Handler struct {
	renderer Renderer
	sender   mailer.Sender
	provider string
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithHandlerMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithProvider names the mail provider in metrics.
func WithProvider(name string) HandlerOption {
	return func(h *Handler) {
		h.provider = name
	}
}

func NewHandler(renderer Renderer, sender mailer.Sender, opts ...HandlerOption) *Handler {
	h := &Handler{
		renderer: renderer,
		sender:   sender,
		provider: "unknown",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements MessageHandler.
func (h *Handler) Handle(ctx context.Context, msg *Message) error {
	start := time.Now()
	html, err := h.renderer.Render(ctx, templater.Request{
		TemplateName: msg.TemplateName,
		Language:     msg.Language,
		Data:         msg.TemplateData,
	})
	h.metrics.ObserveRender(msg.TemplateName, msg.Language, err, time.Since(start))
	if err != nil {
		return err
	}

	email := &mailer.Email{
		From:    msg.FromAddress,
		To:      []string{msg.RecipientEmail},
		Subject: msg.Subject,
		HTML:    html,
	}

	start = time.Now()
	err = h.sender.Send(ctx, email)
	h.metrics.ObserveSend(h.provider, err, time.Since(start))
	if err != nil {
		return err
	}

	h.logger.Info("email sent",
		zap.String("template", msg.TemplateName),
		zap.String("language", msg.Language),
		zap.String("recipient", msg.RecipientEmail),
	)
	return nil
}
