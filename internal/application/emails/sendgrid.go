package emails

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridHost = "https://api.sendgrid.com"

// SendGridClient sends emails through the SendGrid v3 mail/send endpoint.
type SendGridClient struct {
	APIKey   string
	MailFrom string
	Host     string // defaults to https://api.sendgrid.com
}

func (c *SendGridClient) Send(ctx context.Context, msg Message) error {
	if c.APIKey == "" {
		return ErrNoSender
	}
	host := c.Host
	if host == "" {
		host = sendgridHost
	}
	from := mail.NewEmail(senderName, fromAddress(c.MailFrom))
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	req := sendgrid.GetRequest(c.APIKey, "/v3/mail/send", host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
