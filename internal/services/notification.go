package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventmanager/internal/domain"
)

// maxRecipientsPerMessage caps the recipients of a single email (the SES per-message limit).
const maxRecipientsPerMessage = 50

type notificationService struct {
	userRepo         domain.UserRepository
	eventRepo        domain.EventRepository
	registrationRepo domain.EventRegistrationRepository
	mailer           domain.Mailer
	renderer         domain.EmailTemplateRenderer
	logger           *slog.Logger
}

// NewNotificationService returns a NotificationService that renders templates with renderer and
// delivers them through mailer.
func NewNotificationService(
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
	registrationRepo domain.EventRegistrationRepository,
	mailer domain.Mailer,
	renderer domain.EmailTemplateRenderer,
	logger *slog.Logger,
) domain.NotificationService {
	return &notificationService{
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		mailer:           mailer,
		renderer:         renderer,
		logger:           logger,
	}
}

func (s *notificationService) SendRegistrationStatus(ctx context.Context, userID, eventID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	reg, err := s.registrationRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("get event registration: %w", err)
	}

	data := &domain.RegistrationEmailData{
		Email:      user.Email,
		EventTitle: event.Title,
		EventDate:  event.Date.UTC().Format(domain.EmailDateLayout),
	}
	tmpl := registrationTemplate(reg.Status)
	if err := s.send(ctx, tmpl, data, []string{user.Email}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "registration email sent", "template", tmpl, "user_id", userID, "event_id", eventID)
	return nil
}

func (s *notificationService) SendEventDateChanged(ctx context.Context, eventID, oldDate, newDate string) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	recipients, err := s.registrationRepo.ListRegistrantEmails(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list registrants: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}
	data := &domain.EventDateChangedEmailData{EventTitle: event.Title, OldDate: oldDate, NewDate: newDate}
	if err := s.send(ctx, domain.TemplateEventDateChanged, data, recipients); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "date change email sent", "event_id", eventID, "recipients", len(recipients))
	return nil
}

func (s *notificationService) SendEventCancelled(ctx context.Context, eventTitle, eventDate string, recipients []string) error {
	if len(recipients) == 0 {
		return nil
	}
	data := &domain.EventCancelledEmailData{EventTitle: eventTitle, EventDate: eventDate}
	if err := s.send(ctx, domain.TemplateEventCancelled, data, recipients); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "cancellation email sent", "event_title", eventTitle, "recipients", len(recipients))
	return nil
}

func (s *notificationService) send(ctx context.Context, templateName string, data any, recipients []string) error {
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	for start := 0; start < len(recipients); start += maxRecipientsPerMessage {
		end := min(start+maxRecipientsPerMessage, len(recipients))
		if err := s.mailer.Send(ctx, recipients[start:end], subject, htmlBody, textBody); err != nil {
			return fmt.Errorf("failed to send %s email: %w", templateName, err)
		}
	}
	return nil
}

func registrationTemplate(status domain.RegistrationStatus) string {
	switch status {
	case domain.RegistrationConfirmed:
		return domain.TemplateRegistrationConfirmed
	case domain.RegistrationCancelled:
		return domain.TemplateRegistrationCancelled
	default:
		return domain.TemplateRegistrationInvitation
	}
}
