package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/repositories"
)

// appendAttempts bounds the retries on a failing notification insert. A
// notification that cannot be durably recorded is a silent loss for an
// offline receiver, so the write is worth retrying before giving up.
const appendAttempts = 3

// NotificationService owns the per-receiver notification log.
type NotificationService struct {
	notifications repositories.NotificationStore
	dispatcher    *Dispatcher
}

func NewNotificationService(notifications repositories.NotificationStore, dispatcher *Dispatcher) *NotificationService {
	return &NotificationService{notifications: notifications, dispatcher: dispatcher}
}

// Append durably records a notification and hands it to the fanout. Used by
// collaborators outside the booking transaction (payment updates, system
// alerts); booking transitions insert their notification inside their own
// transaction instead. Returns ErrStorageUnavailable after exhausting
// retries.
func (s *NotificationService) Append(ctx context.Context, notification *models.Notification) error {
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	var err error
	for attempt := 1; attempt <= appendAttempts; attempt++ {
		if err = s.notifications.Insert(ctx, notification); err == nil {
			s.dispatcher.Enqueue(*notification)
			return nil
		}
		log.Printf("Notification append attempt %d/%d failed: %v", attempt, appendAttempts, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("appending notification after %d attempts (%v): %w", appendAttempts, err, ErrStorageUnavailable)
}

// Get returns a notification if actor owns it.
func (s *NotificationService) Get(ctx context.Context, id primitive.ObjectID, actor models.Identity) (*models.Notification, error) {
	notification, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, fmt.Errorf("notification %s: %w", id.Hex(), ErrNotFound)
	}
	if notification.Receiver != actor.ID || notification.ReceiverModel != actor.ReceiverModel() {
		return nil, fmt.Errorf("notification %s belongs to another receiver: %w", id.Hex(), ErrForbidden)
	}
	return notification, nil
}

// MarkRead sets the read flag. Marking twice is the same as marking once.
func (s *NotificationService) MarkRead(ctx context.Context, id primitive.ObjectID, actor models.Identity) (*models.Notification, error) {
	notification, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	notification.Read = true
	return notification, nil
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor models.Identity, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByReceiver(ctx, actor.ID, actor.ReceiverModel(), unreadOnly)
}

// Delete removes one notification owned by actor.
func (s *NotificationService) Delete(ctx context.Context, id primitive.ObjectID, actor models.Identity) error {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}

// ClearAll empties the actor's inbox and reports how many records were
// removed.
func (s *NotificationService) ClearAll(ctx context.Context, actor models.Identity) (int64, error) {
	return s.notifications.DeleteAllForReceiver(ctx, actor.ID, actor.ReceiverModel())
}
