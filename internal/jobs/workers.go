package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/riverqueue/river"

	"eventmanager/internal/domain"
)

// RegistrationEmailArgs asks for the status email of one registration.
type RegistrationEmailArgs struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
}

func (RegistrationEmailArgs) Kind() string { return JobKindRegistrationEmail }

// EventDateChangeEmailArgs asks for the date change email to every registrant of an event.
type EventDateChangeEmailArgs struct {
	EventID string `json:"event_id"`
	OldDate string `json:"old_date"`
	NewDate string `json:"new_date"`
}

func (EventDateChangeEmailArgs) Kind() string { return JobKindEventDateChangeEmail }

// EventCancellationEmailArgs carries everything needed to announce a deleted event.
type EventCancellationEmailArgs struct {
	EventTitle        string   `json:"event_title"`
	EventDate         string   `json:"event_date"`
	ParticipantEmails []string `json:"participant_emails"`
}

func (EventCancellationEmailArgs) Kind() string { return JobKindEventCancellationEmail }

// RegistrationEmailWorker sends the email matching the registration's current status.
type RegistrationEmailWorker struct {
	river.WorkerDefaults[RegistrationEmailArgs]
	Notifications domain.NotificationService
	Logger        *slog.Logger
}

func (w *RegistrationEmailWorker) Work(ctx context.Context, job *river.Job[RegistrationEmailArgs]) error {
	err := w.Notifications.SendRegistrationStatus(ctx, job.Args.UserID, job.Args.EventID)
	return settle(ctx, w.Logger, job.JobRow.Kind, err, "user_id", job.Args.UserID, "event_id", job.Args.EventID)
}

// EventDateChangeEmailWorker tells registrants about a moved event.
type EventDateChangeEmailWorker struct {
	river.WorkerDefaults[EventDateChangeEmailArgs]
	Notifications domain.NotificationService
	Logger        *slog.Logger
}

func (w *EventDateChangeEmailWorker) Work(ctx context.Context, job *river.Job[EventDateChangeEmailArgs]) error {
	err := w.Notifications.SendEventDateChanged(ctx, job.Args.EventID, job.Args.OldDate, job.Args.NewDate)
	return settle(ctx, w.Logger, job.JobRow.Kind, err, "event_id", job.Args.EventID)
}

// EventCancellationEmailWorker tells former registrants that an event was deleted.
type EventCancellationEmailWorker struct {
	river.WorkerDefaults[EventCancellationEmailArgs]
	Notifications domain.NotificationService
	Logger        *slog.Logger
}

func (w *EventCancellationEmailWorker) Work(ctx context.Context, job *river.Job[EventCancellationEmailArgs]) error {
	err := w.Notifications.SendEventCancelled(ctx, job.Args.EventTitle, job.Args.EventDate, job.Args.ParticipantEmails)
	return settle(ctx, w.Logger, job.JobRow.Kind, err, "event_title", job.Args.EventTitle, "recipients", len(job.Args.ParticipantEmails))
}

// settle turns a notification error into the job outcome: records that vanished before the
// job ran cancel it, anything else is retried.
func settle(ctx context.Context, logger *slog.Logger, kind string, err error, attrs ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		if logger != nil {
			logger.WarnContext(ctx, "notification target no longer exists", append([]any{"kind", kind, "err", err}, attrs...)...)
		}
		return river.JobCancel(err)
	}
	return err
}

// NewWorkers registers every notification worker.
func NewWorkers(notifications domain.NotificationService, logger *slog.Logger) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker(workers, &RegistrationEmailWorker{Notifications: notifications, Logger: logger})
	river.AddWorker(workers, &EventDateChangeEmailWorker{Notifications: notifications, Logger: logger})
	river.AddWorker(workers, &EventCancellationEmailWorker{Notifications: notifications, Logger: logger})
	return workers
}
