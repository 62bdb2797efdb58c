package smtp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	mail "github.com/go-mail/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtemplate/internal/mailer"
)

type fakeDialer struct {
	sent []*mail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func render(t *testing.T, m *mail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	s := NewWithDialer(Config{Host: "smtp.internal", Port: 25, From: "noreply@skillzzy.com"}, d, nil)

	err := s.Send(context.Background(), &mailer.Email{
		To:      []string{"john@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hi</p>",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	assert.Equal(t, []string{"noreply@skillzzy.com"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"john@example.com"}, d.sent[0].GetHeader("To"))

	raw := render(t, d.sent[0])
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, raw, "<p>Hi</p>")
}

func TestSender_Alternative(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	s := NewWithDialer(Config{From: "noreply@skillzzy.com"}, d, nil)

	require.NoError(t, s.Send(context.Background(), &mailer.Email{
		To:      []string{"john@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
	}))

	raw := render(t, d.sent[0])
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
}

func TestSender_Failure(t *testing.T) {
	t.Parallel()

	s := NewWithDialer(Config{From: "noreply@skillzzy.com"}, &fakeDialer{err: errors.New("connection refused")}, nil)
	err := s.Send(context.Background(), &mailer.Email{
		To:      []string{"john@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hi</p>",
	})
	require.ErrorIs(t, err, mailer.ErrSendFailed)
}

func TestSender_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &fakeDialer{}
	err := NewWithDialer(Config{}, d, nil).Send(ctx, &mailer.Email{
		To:      []string{"john@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hi</p>",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.sent)
}

func TestNewDialer(t *testing.T) {
	t.Parallel()

	assert.True(t, newDialer(Config{Host: "h", Port: 465, TLSMode: "ssl"}).SSL)
	assert.Equal(t, mail.StartTLSPolicy(mail.MandatoryStartTLS), newDialer(Config{Host: "h", Port: 587, TLSMode: "starttls"}).StartTLSPolicy)
	assert.Equal(t, mail.StartTLSPolicy(mail.NoStartTLS), newDialer(Config{Host: "h", Port: 25, TLSMode: "none"}).StartTLSPolicy)
}
