// Package channel abstracts the outbound transports. Concrete email/SMS
// providers live outside this service; the engine only needs send and an
// error back. Retry policy, if any, belongs to the provider.
package channel

import "context"

type EmailMessage struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

type SMSMessage struct {
	To       string
	Body     string
	MediaURL string
}

type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) error
}
