package domain

import (
	"context"
	"time"
)

// Event represents an event organized by a user.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	OrganizerID string    `json:"organizer"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, description, location, organizerID string, date, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		OrganizerID: organizerID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EventUpdate carries the fields to change on an event. Nil fields are left unchanged.
// The organizer is not updatable.
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
}

// IsEmpty reports whether the update changes nothing.
func (u EventUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Date == nil && u.Location == nil
}

// DeletedEvent is what remains of an event after it has been deleted: enough to tell
// its former registrants about the cancellation.
type DeletedEvent struct {
	Event            *Event
	RegistrantEmails []string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// LockByID reads the event and locks its row until the enclosing transaction ends.
	LockByID(ctx context.Context, id string) (*Event, error)
	// List returns events matching filter ordered by date ascending, and the total number of
	// matches ignoring pagination.
	List(ctx context.Context, filter EventFilter) ([]*Event, int, error)
	Update(ctx context.Context, id string, update EventUpdate) (*Event, error)
	// DeleteReturningRegistrants captures the registrants' emails and deletes the event
	// (cascading to its registrations) in a single transaction.
	DeleteReturningRegistrants(ctx context.Context, id string) (*DeletedEvent, error)
}

// EventService defines the business logic of the event resource.
type EventService interface {
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, int, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	// CreateEvent persists the event with the caller as organizer, registers the organizer as
	// confirmed and every resolvable invited user as pending, all in one transaction.
	CreateEvent(ctx context.Context, event *Event, invitedUserIDs []string) error
	UpdateEvent(ctx context.Context, eventID, callerID string, update EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error
}
