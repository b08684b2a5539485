package domain

import "context"

// Notifier queues notifications for asynchronous delivery. Implementations only enqueue;
// they must not send mail on the caller's goroutine.
type Notifier interface {
	NotifyRegistration(ctx context.Context, userID, eventID string) error
	NotifyEventDateChanged(ctx context.Context, eventID, oldDate, newDate string) error
	NotifyEventCancelled(ctx context.Context, eventTitle, eventDate string, participantEmails []string) error
}
