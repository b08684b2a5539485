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

type registrationService struct {
	registrationRepo domain.EventRegistrationRepository
	notifier         domain.Notifier
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewRegistrationService creates a RegistrationService that queues a notification for every
// registration it creates or changes.
func NewRegistrationService(
	registrationRepo domain.EventRegistrationRepository,
	notifier domain.Notifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		notifier:         notifier,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

func (s *registrationService) EnsureRegistration(ctx context.Context, eventID, userID string, defaultStatus domain.RegistrationStatus) (*domain.EventRegistration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, created, err := s.registrationRepo.GetOrCreate(ctx, domain.NewEventRegistration(eventID, userID, defaultStatus))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get or create event registration: %w", err)
	}
	if created {
		s.notifyRegistration(ctx, userID, eventID)
	}
	return reg, created, nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, userID string) ([]*domain.RegistrationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	regs, err := s.registrationRepo.ListDetailsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationService) GetMyRegistration(ctx context.Context, id, userID string) (*domain.RegistrationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.getDetail(ctx, id, userID)
}

func (s *registrationService) CreateRegistration(ctx context.Context, eventID, userID string, status *domain.RegistrationStatus) (*domain.RegistrationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	st := domain.RegistrationPending
	if status != nil {
		st = *status
	}
	if !st.Valid() {
		return nil, domain.NewValidationError("status", "must be one of pending, confirmed, cancelled")
	}
	if _, err := uuid.Parse(eventID); err != nil {
		return nil, domain.NewValidationError("event", "event does not exist")
	}

	reg := domain.NewEventRegistration(eventID, userID, st)
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.NewValidationError("event", "event does not exist")
		case errors.Is(err, domain.ErrDuplicateRegistration):
			return nil, domain.ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("create event registration: %w", err)
	}
	s.notifyRegistration(ctx, userID, eventID)

	return s.getDetail(ctx, reg.ID, userID)
}

func (s *registrationService) UpdateRegistration(ctx context.Context, id, userID string, status *domain.RegistrationStatus) (*domain.RegistrationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if status == nil {
		return s.getDetail(ctx, id, userID)
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "must be one of pending, confirmed, cancelled")
	}
	if err := s.registrationRepo.UpdateStatusForUser(ctx, id, userID, *status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event registration: %w", err)
	}

	detail, err := s.getDetail(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.notifyRegistration(ctx, userID, detail.EventID)
	return detail, nil
}

func (s *registrationService) DeleteRegistration(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.registrationRepo.DeleteForUser(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event registration: %w", err)
	}
	return nil
}

func (s *registrationService) getDetail(ctx context.Context, id, userID string) (*domain.RegistrationDetail, error) {
	detail, err := s.registrationRepo.GetDetailForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event registration: %w", err)
	}
	return detail, nil
}

// notifyRegistration queues the status email once the enclosing transaction, if any, commits.
// A failed enqueue is logged and never fails the caller.
func (s *registrationService) notifyRegistration(ctx context.Context, userID, eventID string) {
	domain.AfterCommit(ctx, func() {
		if err := s.notifier.NotifyRegistration(ctx, userID, eventID); err != nil {
			s.logger.ErrorContext(ctx, "enqueue registration notification", "user_id", userID, "event_id", eventID, "err", err)
		}
	})
}
