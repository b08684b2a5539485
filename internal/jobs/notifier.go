package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

// JobInserter is the part of the River client the notifier needs.
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

type riverNotifier struct {
	client JobInserter
}

// NewNotifier returns a domain.Notifier that enqueues River jobs on client.
func NewNotifier(client JobInserter) domain.Notifier {
	return &riverNotifier{client: client}
}

func (n *riverNotifier) NotifyRegistration(ctx context.Context, userID, eventID string) error {
	return n.insert(ctx, RegistrationEmailArgs{UserID: userID, EventID: eventID})
}

func (n *riverNotifier) NotifyEventDateChanged(ctx context.Context, eventID, oldDate, newDate string) error {
	return n.insert(ctx, EventDateChangeEmailArgs{EventID: eventID, OldDate: oldDate, NewDate: newDate})
}

func (n *riverNotifier) NotifyEventCancelled(ctx context.Context, eventTitle, eventDate string, participantEmails []string) error {
	if participantEmails == nil {
		participantEmails = []string{}
	}
	return n.insert(ctx, EventCancellationEmailArgs{EventTitle: eventTitle, EventDate: eventDate, ParticipantEmails: participantEmails})
}

func (n *riverNotifier) insert(ctx context.Context, args river.JobArgs) error {
	if _, err := n.client.Insert(ctx, args, InsertOptsForKind(args.Kind())); err != nil {
		metrics.NotificationEnqueueFailures.WithLabelValues(args.Kind()).Inc()
		return fmt.Errorf("enqueue %s: %w", args.Kind(), err)
	}
	return nil
}
