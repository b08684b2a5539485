package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventmanager/internal/domain"
)

type eventService struct {
	tx             domain.Transactor
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	registrations  domain.RegistrationService
	notifier       domain.Notifier
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(tx domain.Transactor,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	registrations domain.RegistrationService,
	notifier domain.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		tx:             tx,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		registrations:  registrations,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.OrganizerID != "" {
		if _, err := uuid.Parse(filter.OrganizerID); err != nil {
			return nil, 0, domain.NewValidationError("organizer", "must be a valid user id")
		}
	}
	events, total, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event, invitedUserIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OrganizerID == "" {
		return fmt.Errorf("event organizer is required")
	}
	now := s.now()
	if !event.Date.After(now) {
		return domain.NewValidationError("date", "must be in the future")
	}
	event.Date = event.Date.UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	// Registration notifications are deferred until the transaction commits.
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		if _, _, err := s.registrations.EnsureRegistration(ctx, event.ID, event.OrganizerID, domain.RegistrationConfirmed); err != nil {
			return fmt.Errorf("register organizer: %w", err)
		}
		return s.registerInvitees(ctx, event, invitedUserIDs)
	})
}

// registerInvitees registers every distinct invited id that resolves to a user other than the
// organizer as pending. Malformed and unknown ids are skipped.
func (s *eventService) registerInvitees(ctx context.Context, event *domain.Event, invitedUserIDs []string) error {
	seen := map[string]struct{}{event.OrganizerID: {}}
	for _, id := range invitedUserIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return fmt.Errorf("get invited user: %w", err)
		}
		if _, _, err := s.registrations.EnsureRegistration(ctx, event.ID, id, domain.RegistrationPending); err != nil {
			return fmt.Errorf("register invited user: %w", err)
		}
	}
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, update domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// The row lock keeps the previous date accurate when updates race.
	var oldDate time.Time
	var updated *domain.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.eventRepo.LockByID(ctx, eventID)
		if err != nil {
			return err
		}
		if current.OrganizerID != callerID {
			return domain.ErrForbidden
		}
		if update.Date != nil {
			if !update.Date.After(s.now()) {
				return domain.NewValidationError("date", "must be in the future")
			}
			utc := update.Date.UTC()
			update.Date = &utc
		}
		oldDate = current.Date
		if update.IsEmpty() {
			updated = current
			return nil
		}
		updated, err = s.eventRepo.Update(ctx, eventID, update)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.ErrNotFound
		case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrInvalidInput):
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if !updated.Date.Equal(oldDate) {
		err := s.notifier.NotifyEventDateChanged(ctx, eventID,
			oldDate.UTC().Format(domain.EmailDateLayout), updated.Date.UTC().Format(domain.EmailDateLayout))
		if err != nil {
			s.logger.ErrorContext(ctx, "enqueue date change notification", "event_id", eventID, "err", err)
		}
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != callerID {
		return domain.ErrForbidden
	}

	deleted, err := s.eventRepo.DeleteReturningRegistrants(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	err = s.notifier.NotifyEventCancelled(ctx, deleted.Event.Title,
		deleted.Event.Date.UTC().Format(domain.EmailDateLayout), deleted.RegistrantEmails)
	if err != nil {
		s.logger.ErrorContext(ctx, "enqueue cancellation notification", "event_id", eventID, "err", err)
	}
	return nil
}
