package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrInvalidMessage marks a queue message that can never be processed.
var ErrInvalidMessage = errors.New("invalid message")

// Message is the JSON body of a queued email request.
type Message struct {
	TemplateName   string         `json:"template_name"`
	Language       string         `json:"language"`
	RecipientEmail string         `json:"recipient_email"`
	Subject        string         `json:"subject"`
	TemplateData   map[string]any `json:"template_data"`

	// FromAddress overrides the configured sender when set.
	FromAddress string `json:"from_address,omitempty"`
}

// ParseMessage decodes and validates a message body. Numbers in
// template_data are kept as json.Number so they render exactly as sent.
func ParseMessage(body []byte) (*Message, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	for _, field := range []string{"template_name", "language", "recipient_email", "subject", "template_data"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("%w: missing required field %s", ErrInvalidMessage, field)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks field contents.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.TemplateName) == "" {
		return fmt.Errorf("%w: template_name must be a non-empty string", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Language) == "" {
		return fmt.Errorf("%w: language must be a non-empty string", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject must be a non-empty string", ErrInvalidMessage)
	}
	if m.TemplateData == nil {
		return fmt.Errorf("%w: template_data must be an object", ErrInvalidMessage)
	}

	addr, err := mail.ParseAddress(m.RecipientEmail)
	if err != nil {
		return fmt.Errorf("%w: invalid recipient_email %q", ErrInvalidMessage, m.RecipientEmail)
	}
	m.RecipientEmail = addr.Address

	if m.FromAddress != "" {
		if _, err := mail.ParseAddress(m.FromAddress); err != nil {
			return fmt.Errorf("%w: invalid from_address %q", ErrInvalidMessage, m.FromAddress)
		}
	}
	return nil
}
