package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the state of a user's registration for an event.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled:
		return true
	}
	return false
}

// EventRegistration represents a user's registration for an event.
// There is at most one registration per (event, user) pair.
type EventRegistration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"event"`
	UserID       string             `json:"-"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registered_at"`
	UpdatedAt    time.Time          `json:"-"`
}

// NewEventRegistration creates a new EventRegistration. ID and RegisteredAt are set by the repository on create.
func NewEventRegistration(eventID, userID string, status RegistrationStatus) *EventRegistration {
	return &EventRegistration{
		EventID: eventID,
		UserID:  userID,
		Status:  status,
	}
}

// RegistrationDetail is a registration joined with the user and event fields shown to clients.
type RegistrationDetail struct {
	EventRegistration
	UserEmail  string    `json:"user_email"`
	EventTitle string    `json:"event_title"`
	EventDate  time.Time `json:"event_date"`
}

// EventRegistrationRepository defines storage operations for event registrations.
type EventRegistrationRepository interface {
	// GetOrCreate inserts reg unless the (event, user) pair already exists. It returns the stored
	// registration and whether it was created by this call.
	GetOrCreate(ctx context.Context, reg *EventRegistration) (*EventRegistration, bool, error)
	// Create inserts reg, failing with ErrDuplicateRegistration when the pair exists and with
	// ErrNotFound when the event does not.
	Create(ctx context.Context, reg *EventRegistration) error
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*EventRegistration, error)
	GetDetailForUser(ctx context.Context, id, userID string) (*RegistrationDetail, error)
	// ListDetailsByUserID returns the user's registrations ordered by event date ascending.
	ListDetailsByUserID(ctx context.Context, userID string) ([]*RegistrationDetail, error)
	UpdateStatusForUser(ctx context.Context, id, userID string, status RegistrationStatus) error
	DeleteForUser(ctx context.Context, id, userID string) error
	// ListRegistrantEmails returns the email of every user registered for the event.
	ListRegistrantEmails(ctx context.Context, eventID string) ([]string, error)
}

// RegistrationService defines registration operations: the get-or-create used by event
// creation and the caller-scoped registration resource.
type RegistrationService interface {
	// EnsureRegistration registers the user for the event with defaultStatus unless already
	// registered. Returns (reg, created, err); a notification is queued only when created.
	EnsureRegistration(ctx context.Context, eventID, userID string, defaultStatus RegistrationStatus) (*EventRegistration, bool, error)
	ListMyRegistrations(ctx context.Context, userID string) ([]*RegistrationDetail, error)
	GetMyRegistration(ctx context.Context, id, userID string) (*RegistrationDetail, error)
	// CreateRegistration registers the caller for the event. A nil status means pending.
	CreateRegistration(ctx context.Context, eventID, userID string, status *RegistrationStatus) (*RegistrationDetail, error)
	// UpdateRegistration changes the status when one is given and queues a fresh notification.
	UpdateRegistration(ctx context.Context, id, userID string, status *RegistrationStatus) (*RegistrationDetail, error)
	DeleteRegistration(ctx context.Context, id, userID string) error
}
