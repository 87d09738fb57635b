package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
)

// ErrDuplicateKey is returned by Insert when a unique index rejects the
// write (a second active booking for the same user and room).
var ErrDuplicateKey = errors.New("duplicate key")

// BookingStore is the durable booking table. Lookups return (nil, nil) when
// no document matches.
type BookingStore interface {
	Insert(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	FindActiveByUserAndRoom(ctx context.Context, userID, roomID primitive.ObjectID) (*models.Booking, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
	FindApprovedByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Booking, error)
	FindApprovedByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Booking, error)
	// UpdateStatus flips the status only when the booking still holds the
	// expected current status. Returns false when the guard did not match.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, paymentStatus string) (bool, error)
}

// RoomStore reads rooms and flips their availability flag. Reserve is the
// conditional-write primitive backing the availability service; nothing
// else may write room status.
type RoomStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Room, error)
	// Reserve sets status to Booked only if it is currently Available.
	// Returns false when the room was already Booked or does not exist.
	Reserve(ctx context.Context, id primitive.ObjectID) (bool, error)
	Release(ctx context.Context, id primitive.ObjectID) error
	// UpdateStatus flips the status only when the room still holds the
	// expected current status. Returns false when the guard did not match.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to string) (bool, error)
	AllIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// NotificationStore is the per-receiver durable notification log.
type NotificationStore interface {
	Insert(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	ListByReceiver(ctx context.Context, receiver primitive.ObjectID, receiverModel string, unreadOnly bool) ([]models.Notification, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteAllForReceiver(ctx context.Context, receiver primitive.ObjectID, receiverModel string) (int64, error)
}

// TxRunner executes fn atomically: every store call made with the context
// fn receives commits or aborts as one unit.
type TxRunner interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}
