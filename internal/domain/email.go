package domain

import "context"

// Email template names.
const (
	TemplateRegistrationConfirmed  = "registration_confirmed"
	TemplateRegistrationCancelled  = "registration_cancelled"
	TemplateRegistrationInvitation = "registration_invitation"
	TemplateEventDateChanged       = "event_date_changed"
	TemplateEventCancelled         = "event_cancelled"
)

// EmailDateLayout is how event dates are written in emails.
const EmailDateLayout = "2006-01-02 15:04"

// Mailer defines the contract for sending emails (infrastructure port).
// All recipients receive the same message.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for the registration status emails.
type RegistrationEmailData struct {
	Email      string
	EventTitle string
	EventDate  string
}

// EventDateChangedEmailData holds data for the event date change email.
type EventDateChangedEmailData struct {
	EventTitle string
	OldDate    string
	NewDate    string
}

// EventCancelledEmailData holds data for the event cancellation email.
type EventCancelledEmailData struct {
	EventTitle string
	EventDate  string
}

// NotificationService sends the emails behind queued notifications. It runs in job workers,
// never on the request path.
type NotificationService interface {
	// SendRegistrationStatus emails the user about their registration for the event, choosing
	// the message from the registration's persisted status.
	SendRegistrationStatus(ctx context.Context, userID, eventID string) error
	// SendEventDateChanged emails every current registrant of the event about the new date.
	SendEventDateChanged(ctx context.Context, eventID, oldDate, newDate string) error
	// SendEventCancelled emails the given recipients that the event was cancelled.
	SendEventCancelled(ctx context.Context, eventTitle, eventDate string, recipients []string) error
}
