package emails

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	senderName  = "Concierge Service"
	defaultFrom = "noreply@concierge.local"
)

// ErrNoSender is returned when no email provider is configured.
var ErrNoSender = errors.New("email provider is not configured")

// Message is one outgoing transactional email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers transactional email. Delivery is not confirmed beyond the provider accepting it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of sending them (local development).
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("html_bytes", len(msg.HTML)).
		Msg("email (log sender, not delivered)")
	return nil
}

// NewSender picks the provider by name ("brevo", "sendgrid", "log").
func NewSender(provider, brevoKey, sendgridKey, mailFrom string) (Sender, error) {
	switch strings.ToLower(provider) {
	case "brevo":
		if brevoKey == "" {
			return nil, errors.New("emails: EMAIL_PROVIDER=brevo needs SENDINBLUE_API_KEY")
		}
		return &BrevoClient{APIKey: brevoKey, MailFrom: mailFrom}, nil
	case "sendgrid":
		if sendgridKey == "" {
			return nil, errors.New("emails: EMAIL_PROVIDER=sendgrid needs SENDGRID_API_KEY")
		}
		return &SendGridClient{APIKey: sendgridKey, MailFrom: mailFrom}, nil
	case "log", "":
		return LogSender{}, nil
	}
	return nil, errors.New("emails: unknown EMAIL_PROVIDER " + provider)
}

func fromAddress(mailFrom string) string {
	if mailFrom != "" {
		return mailFrom
	}
	return defaultFrom
}
