package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/eventreg/backend/internal/config"
)

// SMTPProvider delivers mail through a plain SMTP relay. It is the fallback
// when the primary provider fails or is unconfigured.
type SMTPProvider struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
}

// NewSMTPProvider creates an SMTP-backed provider
func NewSMTPProvider(cfg config.SMTPConfig) *SMTPProvider {
	return &SMTPProvider{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: cfg.FromEmail,
	}
}

// Name identifies this provider in dispatch results
func (p *SMTPProvider) Name() string {
	return "smtp"
}

// Configured reports whether the relay settings are present
func (p *SMTPProvider) Configured() bool {
	return p.host != "" && p.port != "" && p.username != "" && p.password != ""
}

// Send delivers one message over SMTP. smtp.SendMail does not take a
// context, so the call runs in a goroutine and the deadline is enforced by
// selecting on ctx.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	headers := fmt.Sprintf("From: Event Registration <%s>\nTo: %s\nSubject: %s\n",
		p.fromEmail, msg.ToEmail, msg.Subject)
	body := []byte(headers + mime + msg.HTMLContent)

	auth := smtp.PlainAuth("", p.username, p.password, p.host)
	addr := fmt.Sprintf("%s:%s", p.host, p.port)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, p.fromEmail, []string{msg.ToEmail}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send timed out: %w", ctx.Err())
	}
}
