package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendProvider delivers through the Resend API.
type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

func (p *ResendProvider) Send(ctx context.Context, msg Message) (string, error) {
	sent, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
