package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RSVPConfirmedEmailData holds data for the "you're confirmed" email sent
// after a successful going RSVP.
type RSVPConfirmedEmailData struct {
	Email     string
	Name      string
	EventName string
	StartAt   time.Time
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRSVPConfirmed(ctx context.Context, data *RSVPConfirmedEmailData) error
}
