// Package mailer delivers verification emails. Delivery is always
// best-effort from the signup path: callers log failures instead of
// propagating them.
package mailer

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// Mailer sends a verification link to an address.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, toEmail, link string) error
}

// LogMailer is used when no email provider is configured. It logs the
// verification link so local development still surfaces it.
type LogMailer struct{}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, toEmail, link string) error {
	log.Printf("[mailer] no email provider configured; verification link for %s: %s", toEmail, link)
	return nil
}

// ResendMailer sends emails via the Resend REST API.
type ResendMailer struct {
	from   string
	client *resend.Client
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	return &ResendMailer{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (m *ResendMailer) SendVerificationEmail(ctx context.Context, toEmail, link string) error {
	if toEmail == "" || link == "" {
		return fmt.Errorf("toEmail and link are required")
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: "Verify your email address",
		Text:    fmt.Sprintf("Welcome to Chauffeur! Verify your email address by opening this link: %s", link),
		Html:    fmt.Sprintf(`<p>Welcome to Chauffeur!</p><p><a href="%s">Click here</a> to verify your email address.</p>`, link),
	}

	// One attempt per request; failures surface to the caller, which
	// decides whether delivery is best-effort.
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}
