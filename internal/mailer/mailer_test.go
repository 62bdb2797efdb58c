package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func validEmail() *Email {
	return &Email{
		To:      []string{"john@example.com"},
		Subject: "Welcome",
		HTML:    "<p>Hi</p>",
	}
}

func TestEmail_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Email)
		want   error
	}{
		{name: "valid", mutate: func(*Email) {}},
		{name: "no recipient", mutate: func(e *Email) { e.To = nil }, want: ErrNoRecipient},
		{name: "bad recipient", mutate: func(e *Email) { e.To = []string{"john"} }, want: ErrNoRecipient},
		{name: "blank subject", mutate: func(e *Email) { e.Subject = "  " }, want: ErrNoSubject},
		{name: "no html", mutate: func(e *Email) { e.HTML = "" }, want: ErrNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := validEmail()
			tt.mutate(e)
			err := e.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "noreply@skillzzy.com", Address("", "noreply@skillzzy.com"))
	assert.Equal(t, `"Skillzzy" <noreply@skillzzy.com>`, Address("Skillzzy", "noreply@skillzzy.com"))
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), validEmail()))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Welcome", logs.All()[0].ContextMap()["subject"])

	require.ErrorIs(t, s.Send(context.Background(), &Email{}), ErrNoRecipient)
}
