package notify

import "context"

// Message is a rendered notification ready for delivery
type Message struct {
	ToEmail     string
	ToName      string
	Subject     string
	PlainText   string
	HTMLContent string
}

// Provider delivers a message through one email vendor. Providers are tried
// in order by the dispatcher until one succeeds.
type Provider interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// Result is the structured outcome of a dispatch attempt. Dispatch never
// returns an error; failures are captured here and logged.
type Result struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider,omitempty"`
	Error    string `json:"error,omitempty"`
}
