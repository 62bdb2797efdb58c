package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtemplate/internal/mailer"
	"mailtemplate/internal/templates"
	"mailtemplate/pkg/templater"
)

type recordingSender struct {
	sent []*mailer.Email
	err  error
}

func (s *recordingSender) Send(_ context.Context, email *mailer.Email) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, email)
	return nil
}

func testRenderer() *templater.Service {
	return templater.New(templates.NewStore(map[templates.Key]string{
		{Name: "greeting", Language: "en"}: `<html><head><style>.btn { color: red; }</style></head>` +
			`<body><a class="btn" href="{url}">Hi {user_first_name}</a></body></html>`,
	}))
}

func TestHandler_RendersAndSends(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	h := NewHandler(testRenderer(), sender, WithProvider("log"))

	err := h.Handle(context.Background(), &Message{
		TemplateName:   "greeting",
		Language:       "en",
		RecipientEmail: "john@example.com",
		Subject:        "Welcome",
		TemplateData:   map[string]any{"user_first_name": "John", "url": "https://x"},
		FromAddress:    "team@skillzzy.com",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	email := sender.sent[0]
	assert.Equal(t, []string{"john@example.com"}, email.To)
	assert.Equal(t, "Welcome", email.Subject)
	assert.Equal(t, "team@skillzzy.com", email.From)
	assert.Contains(t, email.HTML, `<a class="btn" href="https://x" style="color: red;">Hi John</a>`)
}

func TestHandler_RenderFailureIsNotSent(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	h := NewHandler(testRenderer(), sender)

	err := h.Handle(context.Background(), &Message{
		TemplateName:   "greeting",
		Language:       "en",
		RecipientEmail: "john@example.com",
		Subject:        "Welcome",
		TemplateData:   map[string]any{"user_first_name": "John"},
	})
	require.ErrorIs(t, err, templater.ErrMissingTemplateVariable)
	assert.Empty(t, sender.sent)
}

func TestHandler_SendFailure(t *testing.T) {
	t.Parallel()

	h := NewHandler(testRenderer(), &recordingSender{err: errors.Join(mailer.ErrSendFailed, errors.New("throttled"))})

	err := h.Handle(context.Background(), &Message{
		TemplateName:   "greeting",
		Language:       "en",
		RecipientEmail: "john@example.com",
		Subject:        "Welcome",
		TemplateData:   map[string]any{"user_first_name": "John", "url": "u"},
	})
	require.ErrorIs(t, err, mailer.ErrSendFailed)
}
