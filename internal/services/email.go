package services

import (
	"context"
	"fmt"
	"log"

	"liveparticipation/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendRSVPConfirmed sends the confirmation notice using the "rsvp_confirmed" template.
func (s *emailService) SendRSVPConfirmed(ctx context.Context, data *domain.RSVPConfirmedEmailData) error {
	if data == nil {
		return fmt.Errorf("rsvp confirmed data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("rsvp_confirmed", data)
	if err != nil {
		return fmt.Errorf("failed to render rsvp_confirmed template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send rsvp confirmation email: %w", err)
	}
	log.Printf("[EMAIL] RSVP confirmation sent to %s", data.Email)
	return nil
}
