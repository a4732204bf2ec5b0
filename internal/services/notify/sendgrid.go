package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/eventreg/backend/internal/config"
)

// SendGridProvider delivers mail through the SendGrid API
type SendGridProvider struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewSendGridProvider creates a SendGrid-backed provider
func NewSendGridProvider(cfg config.SendGridConfig) *SendGridProvider {
	return &SendGridProvider{
		apiKey:    cfg.APIKey,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// Name identifies this provider in dispatch results
func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

// Configured reports whether an API key is present
func (p *SendGridProvider) Configured() bool {
	return p.apiKey != ""
}

// Send delivers one message via the SendGrid v3 API
func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(p.fromName, p.fromEmail)
	recipient := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, recipient, msg.PlainText, msg.HTMLContent)

	client := sendgrid.NewSendClient(p.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
